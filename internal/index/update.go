package index

import (
	"path/filepath"

	"github.com/arklib/ark/internal/arkerr"
)

// Logger is the minimal logging seam UpdateAll needs for diagnosing
// timestamps that fail to read or go backwards.
type Logger interface {
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

// IndexUpdate groups the resources added (created or modified) and
// removed by a single UpdateAll call.
type IndexUpdate struct {
	Added   []Resource
	Removed []Resource
}

// IsEmpty reports whether the update changed nothing.
func (u IndexUpdate) IsEmpty() bool {
	return len(u.Added) == 0 && len(u.Removed) == 0
}

// UpdateAll diffs the current filesystem state against the index's
// previous state and mutates the index in place, per the algorithm in
// SPEC_FULL.md §4.3.
func (idx *Index) UpdateAll(s Scanner, logger Logger) (IndexUpdate, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	idx.mu.Lock()
	root := idx.root
	previous := make(map[string]*Resource, len(idx.byPath))
	for p, r := range idx.byPath {
		previous[p] = r
	}
	idx.mu.Unlock()

	entries, err := s.Scan(root)
	if err != nil {
		return IndexUpdate{}, arkerr.Io(root, err)
	}

	currentByPath := make(map[string]Resource, len(entries))
	for _, e := range entries {
		rel, err := relativeTo(root, e.AbsPath)
		if err != nil {
			continue
		}
		currentByPath[rel] = Resource{
			Id:           e.Id,
			Path:         rel,
			LastModified: e.LastModified,
		}
	}

	var update IndexUpdate

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// removed: paths in previous but not in current.
	for p, prev := range previous {
		if _, ok := currentByPath[p]; !ok {
			idx.removeLocked(p)
			update.Removed = append(update.Removed, *prev)
		}
	}

	// created ∪ modified, in that order of consideration, become "added".
	for p, cur := range currentByPath {
		prev, preserved := previous[p]
		switch {
		case !preserved:
			// created
			r := cur
			idx.insertLocked(&r)
			update.Added = append(update.Added, r)
		default:
			elapsed := cur.LastModified.Sub(prev.LastModified)
			if elapsed < 0 {
				logger.Warnf("index: mtime went backwards for %s (was %v, now %v); treating as unmodified",
					p, prev.LastModified, cur.LastModified)
				continue
			}
			if elapsed >= ResourceUpdatedThreshold {
				r := cur
				idx.removeLocked(p)
				idx.insertLocked(&r)
				update.Added = append(update.Added, r)
			}
			// else: preserved-and-unmodified; the existing *Resource
			// object is left strictly untouched, per SPEC_FULL.md §4.3
			// and §9 ("preserving-entry discipline").
		}
	}

	return update, nil
}

// absPath returns the absolute path of a root-relative path.
func absPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
