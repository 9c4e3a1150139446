package index

import (
	"errors"
	"os"
	"strings"

	"github.com/arklib/ark/internal/arkerr"
	"github.com/arklib/ark/internal/hashid"
)

// TrackAddition adds a single path to the index. Preconditions: root/path
// exists, is a regular file, is non-empty, and is not already indexed.
// A path with a component starting with "." (a hidden entry, or "..")
// is rejected with a KindPath error, so I4 and I5 hold.
func (idx *Index) TrackAddition(relPath string, hasher hashid.Hasher) error {
	for _, part := range strings.Split(relPath, "/") {
		if strings.HasPrefix(part, ".") {
			return arkerr.PathErr(relPath, errors.New("path is hidden or not under index root"))
		}
	}

	idx.mu.Lock()
	root := idx.root
	_, already := idx.byPath[relPath]
	idx.mu.Unlock()

	if already {
		return arkerr.AlreadyIndexed(relPath)
	}

	full := absPath(root, relPath)
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return arkerr.PathErr(relPath, errNotFound)
		}
		return arkerr.Io(relPath, err)
	}
	if !info.Mode().IsRegular() {
		return arkerr.PathErr(relPath, errNotRegular)
	}
	if info.Size() == 0 {
		return arkerr.Empty(relPath)
	}

	id, err := hasher.HashPath(full)
	if err != nil {
		return arkerr.Hash(relPath, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, already := idx.byPath[relPath]; already {
		return arkerr.AlreadyIndexed(relPath)
	}
	idx.insertLocked(&Resource{
		Id:           id,
		Path:         relPath,
		LastModified: info.ModTime(),
	})
	return nil
}

// TrackRemoval removes a single path from the index. Preconditions: the
// path no longer exists on disk, and it is currently indexed.
func (idx *Index) TrackRemoval(relPath string) error {
	idx.mu.Lock()
	root := idx.root
	idx.mu.Unlock()

	full := absPath(root, relPath)
	if _, err := os.Stat(full); err == nil {
		return arkerr.StillExists(relPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return arkerr.Io(relPath, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.removeLocked(relPath) {
		return arkerr.NotIndexed(relPath)
	}
	return nil
}

// TrackModification re-hashes a single path unconditionally. Preconditions:
// the path is currently indexed, and it exists and is non-empty on disk.
// It is authoritative: it never consults the last-modified threshold that
// UpdateAll uses, because a caller invoking it has already decided a
// modification happened (e.g. a watch event named this exact path).
func (idx *Index) TrackModification(relPath string, hasher hashid.Hasher) error {
	idx.mu.Lock()
	_, indexed := idx.byPath[relPath]
	idx.mu.Unlock()
	if !indexed {
		return arkerr.NotIndexed(relPath)
	}

	idx.mu.Lock()
	idx.removeLocked(relPath)
	idx.mu.Unlock()

	if err := idx.TrackAddition(relPath, hasher); err != nil {
		return err
	}
	return nil
}

var errNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "path does not exist" }

var errNotRegular = notRegularErr{}

type notRegularErr struct{}

func (notRegularErr) Error() string { return "path is not a regular file" }
