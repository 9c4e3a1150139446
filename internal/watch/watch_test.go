package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arklib/ark/internal/hashid"
	"github.com/arklib/ark/internal/scanner"
	"github.com/arklib/ark/internal/watch"
)

func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoopBuildsAndStoresIndexOnConstruction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	hasher := hashid.NewCRC32Hasher()
	loop, err := watch.New(watch.Options{
		Root:    dir,
		Hasher:  hasher,
		Scanner: scanner.New(hasher),
	})
	require.NoError(t, err)
	defer loop.Close()

	assert.Equal(t, 1, loop.Index().Len())
	_, err = os.Stat(filepath.Join(dir, ".ark", "index"))
	assert.NoError(t, err)
}

func TestLoopRunReturnsOnContextCancellation(t *testing.T) {
	dir := t.TempDir()
	hasher := hashid.NewCRC32Hasher()
	loop, err := watch.New(watch.Options{
		Root:    dir,
		Hasher:  hasher,
		Scanner: scanner.New(hasher),
	})
	require.NoError(t, err)
	defer loop.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
