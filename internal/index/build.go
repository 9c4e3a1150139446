package index

import (
	"path/filepath"
	"strings"

	"github.com/arklib/ark/internal/arkerr"
	"github.com/arklib/ark/internal/scanner"
)

// Scanner is the subset of scanner.Scanner that Build/UpdateAll depend on.
type Scanner interface {
	Scan(root string) ([]scanner.Entry, error)
}

// Build canonicalises root, scans it, and returns a freshly populated
// Index. It does not persist the result; callers that want it on disk
// call Store afterwards.
func Build(root string, s Scanner) (*Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, arkerr.Io(root, err)
	}
	canonical, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, arkerr.Io(root, err)
	}

	entries, err := s.Scan(canonical)
	if err != nil {
		return nil, arkerr.Io(canonical, err)
	}

	idx := newEmpty(canonical)
	for _, e := range entries {
		rel, err := relativeTo(canonical, e.AbsPath)
		if err != nil {
			continue
		}
		idx.insertLocked(&Resource{
			Id:           e.Id,
			Path:         rel,
			LastModified: e.LastModified,
		})
	}
	return idx, nil
}

// relativeTo strips root from absPath and validates the result is a
// relative path under root (I4): no leading component, no "..".
func relativeTo(root, absPath string) (string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", arkerr.PathErr(absPath, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") || rel == ".." || filepath.IsAbs(rel) {
		return "", arkerr.PathErr(absPath, errNotUnderRoot)
	}
	return rel, nil
}

var errNotUnderRoot = notUnderRootErr{}

type notUnderRootErr struct{}

func (notUnderRootErr) Error() string { return "path is not under index root" }
