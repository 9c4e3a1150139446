package index_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arklib/ark/internal/index"
)

func TestUpdateAllDetectsCreatedRemovedModified(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stays.txt", "stable")
	removedPath := writeFile(t, dir, "removed.txt", "goes away")
	modifiedPath := writeFile(t, dir, "modified.txt", "before")

	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	before, ok := idx.GetByPath("stays.txt")
	require.True(t, ok)

	require.NoError(t, os.Remove(removedPath))
	writeFile(t, dir, "created.txt", "brand new")

	// Force mtime far enough past the threshold that the diff sees it.
	newModTime := time.Now().Add(10 * time.Second)
	require.NoError(t, os.WriteFile(modifiedPath, []byte("after"), 0o644))
	require.NoError(t, os.Chtimes(modifiedPath, newModTime, newModTime))

	update, err := idx.UpdateAll(newScanner(), nil)
	require.NoError(t, err)

	assert.Len(t, update.Removed, 1)
	assert.Equal(t, "removed.txt", update.Removed[0].Path)

	addedPaths := make([]string, 0, len(update.Added))
	for _, r := range update.Added {
		addedPaths = append(addedPaths, r.Path)
	}
	assert.ElementsMatch(t, []string{"created.txt", "modified.txt"}, addedPaths)

	_, ok = idx.GetByPath("removed.txt")
	assert.False(t, ok)
	_, ok = idx.GetByPath("created.txt")
	assert.True(t, ok)

	after, ok := idx.GetByPath("stays.txt")
	require.True(t, ok)
	assert.Equal(t, before.Id, after.Id)
}

func TestUpdateAllLeavesUnmodifiedEntryUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stable.txt", "unchanged")

	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)
	before, ok := idx.GetByPath("stable.txt")
	require.True(t, ok)

	update, err := idx.UpdateAll(newScanner(), nil)
	require.NoError(t, err)
	assert.True(t, update.IsEmpty())

	r, ok := idx.GetByPath("stable.txt")
	require.True(t, ok)
	assert.Equal(t, "stable.txt", r.Path)
	assert.Equal(t, before, r)
}

func TestUpdateAllTreatsBackwardsTimestampAsUnmodified(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file.txt", "content")

	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)
	before, _ := idx.GetByPath("file.txt")

	past := before.LastModified.Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	var warnings []string
	logger := warnLogger{warnings: &warnings}

	update, err := idx.UpdateAll(newScanner(), logger)
	require.NoError(t, err)
	assert.True(t, update.IsEmpty())
	assert.NotEmpty(t, warnings)

	after, _ := idx.GetByPath("file.txt")
	assert.Equal(t, before.Id, after.Id)
}

type warnLogger struct {
	warnings *[]string
}

func (w warnLogger) Warnf(format string, args ...any) {
	*w.warnings = append(*w.warnings, format)
}

func TestUpdateAllRejectsScanErrorAgainstRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "a.txt", "data")

	idx, err := index.Build(sub, newScanner())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(sub))

	_, err = idx.UpdateAll(newScanner(), nil)
	assert.Error(t, err)
}
