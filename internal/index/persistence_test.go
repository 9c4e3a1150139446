package index_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arklib/ark/internal/index"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello")
	writeFile(t, dir, "sub/b.txt", "world")

	built, err := index.Build(dir, newScanner())
	require.NoError(t, err)
	require.NoError(t, built.Store())

	data, err := os.ReadFile(filepath.Join(dir, ".ark", "index"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "secs_since_epoch")
	assert.Contains(t, string(data), "by_path")
	assert.Contains(t, string(data), "by_id")

	loaded, err := index.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, built.Len(), loaded.Len())

	for _, r := range built.Resources() {
		lr, ok := loaded.GetByPath(r.Path)
		require.True(t, ok)
		assert.True(t, r.Id.Equal(lr.Id))
		assert.WithinDuration(t, r.LastModified, lr.LastModified, 0)
	}
}

func TestLoadOrBuildBuildsWhenNoIndexOnDisk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	idx, err := index.LoadOrBuild(dir, newScanner(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	_, err = os.Stat(filepath.Join(dir, ".ark", "index"))
	require.NoError(t, err)
}

func TestLoadOrBuildRefreshesFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	first, err := index.LoadOrBuild(dir, newScanner(), false, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	writeFile(t, dir, "b.txt", "new content")

	second, err := index.LoadOrBuild(dir, newScanner(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())

	reloaded, err := index.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len(), "refresh must persist the reconciled index, not just update it in memory")
}

func TestLoadRejectsMissingIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := index.Load(dir)
	assert.Error(t, err)
}
