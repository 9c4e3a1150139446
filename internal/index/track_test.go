package index_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arklib/ark/internal/arkerr"
	"github.com/arklib/ark/internal/hashid"
	"github.com/arklib/ark/internal/index"
)

func TestTrackAdditionAddsNewPath(t *testing.T) {
	dir := t.TempDir()
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	writeFile(t, dir, "new.txt", "content")
	require.NoError(t, idx.TrackAddition("new.txt", hashid.NewCRC32Hasher()))

	r, ok := idx.GetByPath("new.txt")
	require.True(t, ok)
	assert.False(t, r.Id.IsZero())
}

func TestTrackAdditionRejectsAlreadyIndexed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	err = idx.TrackAddition("a.txt", hashid.NewCRC32Hasher())
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindAlreadyIndexed))
}

func TestTrackAdditionRejectsMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	err = idx.TrackAddition("missing.txt", hashid.NewCRC32Hasher())
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindPath))

	writeFile(t, dir, "empty.txt", "")
	err = idx.TrackAddition("empty.txt", hashid.NewCRC32Hasher())
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindEmpty))
}

func TestTrackRemovalRequiresAbsenceAndPriorIndexing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "content")
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	err = idx.TrackRemoval("a.txt")
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindStillExists))

	require.NoError(t, os.Remove(path))
	require.NoError(t, idx.TrackRemoval("a.txt"))

	err = idx.TrackRemoval("a.txt")
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindNotIndexed))
}

func TestTrackModificationPreservesPathButNotIdentity(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "before")
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	before, ok := idx.GetByPath("a.txt")
	require.True(t, ok)

	later := time.Now().Add(time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("after"), 0o644))
	require.NoError(t, os.Chtimes(path, later, later))

	require.NoError(t, idx.TrackModification("a.txt", hashid.NewCRC32Hasher()))

	after, ok := idx.GetByPath("a.txt")
	require.True(t, ok)
	assert.Equal(t, "a.txt", after.Path)
	assert.NotEqual(t, before.Id, after.Id)
}

func TestTrackModificationRequiresPriorIndexing(t *testing.T) {
	dir := t.TempDir()
	idx, err := index.Build(dir, newScanner())
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "content")
	err = idx.TrackModification("a.txt", hashid.NewCRC32Hasher())
	require.Error(t, err)
	assert.True(t, arkerr.HasKind(err, arkerr.KindNotIndexed))
}
