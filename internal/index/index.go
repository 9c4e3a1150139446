// Package index implements the content-addressed file index: its
// in-memory structure, invariants, and the build/query/update/track/
// persist operations described in SPEC_FULL.md §3-4.3.
package index

import (
	"sync"
	"time"

	"github.com/arklib/ark/internal/hashid"
)

// ResourceUpdatedThreshold (Δ) is the minimum mtime delta UpdateAll counts
// as a modification. Filesystems commonly report mtime coarser than
// nanosecond resolution; a strict inequality would falsely re-hash
// identical rewrites on every scan.
const ResourceUpdatedThreshold = time.Millisecond

// Index is the in-memory content-addressed index of files beneath Root.
//
// byPath is the authoritative set of indexed resources, keyed by path
// relative to Root. byID is derived from byPath: a content id maps to the
// set of relative paths that currently hash to it. Both maps are kept
// consistent by every mutating method (I1-I6 in SPEC_FULL.md §3).
//
// Index is not safe for concurrent mutation from multiple goroutines; per
// SPEC_FULL.md §5 it is owned by a single watch loop or caller. External
// readers should call Snapshot for a point-in-time, lock-free view.
type Index struct {
	mu sync.RWMutex

	root string

	byPath map[string]*Resource
	// byID maps an Id's canonical hex encoding to the set of paths
	// currently hashing to it.
	byID map[string]map[string]struct{}
}

func newEmpty(root string) *Index {
	return &Index{
		root:   root,
		byPath: make(map[string]*Resource),
		byID:   make(map[string]map[string]struct{}),
	}
}

// Root returns the canonicalised absolute path of the managed directory.
func (idx *Index) Root() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.root
}

// Len returns the number of indexed resources.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byPath)
}

// IsEmpty reports whether the index holds no resources.
func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

// Resources enumerates all indexed resources, with no duplicates.
func (idx *Index) Resources() []Resource {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Resource, 0, len(idx.byPath))
	for _, r := range idx.byPath {
		out = append(out, *r)
	}
	return out
}

// GetByPath returns the resource indexed at the given relative path.
func (idx *Index) GetByPath(relPath string) (Resource, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	r, ok := idx.byPath[relPath]
	if !ok {
		return Resource{}, false
	}
	return *r, true
}

// GetByID returns every resource currently hashing to id. Returns
// (nil, false) if the id is unknown; may return more than one resource in
// case of a collision.
func (idx *Index) GetByID(id hashid.Id) ([]Resource, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	paths, ok := idx.byID[id.String()]
	if !ok || len(paths) == 0 {
		return nil, false
	}
	out := make([]Resource, 0, len(paths))
	for p := range paths {
		out = append(out, *idx.byPath[p])
	}
	return out, true
}

// Collisions returns every id mapped to more than one path, keyed by the
// id's canonical hex encoding.
func (idx *Index) Collisions() map[string][]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string][]string)
	for idHex, paths := range idx.byID {
		if len(paths) <= 1 {
			continue
		}
		group := make([]string, 0, len(paths))
		for p := range paths {
			group = append(group, p)
		}
		out[idHex] = group
	}
	return out
}

// NumCollisions returns the total number of paths participating in a
// collision.
func (idx *Index) NumCollisions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	total := 0
	for _, paths := range idx.byID {
		if len(paths) > 1 {
			total += len(paths)
		}
	}
	return total
}

// Snapshot returns a shallow clone of both maps, safe for a reader to
// iterate without racing the owning watch loop. Per SPEC_FULL.md §5,
// this is the only supported way for a non-owning caller to observe live
// state.
func (idx *Index) Snapshot() *Index {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	clone := newEmpty(idx.root)
	for p, r := range idx.byPath {
		cp := *r
		clone.byPath[p] = &cp
	}
	for id, paths := range idx.byID {
		cpPaths := make(map[string]struct{}, len(paths))
		for p := range paths {
			cpPaths[p] = struct{}{}
		}
		clone.byID[id] = cpPaths
	}
	return clone
}

// insertLocked adds r to both maps. Callers must hold idx.mu for writing
// and must have already verified r.Path is not present in byPath (or have
// removed it via removeLocked) so I1 holds.
func (idx *Index) insertLocked(r *Resource) {
	idx.byPath[r.Path] = r
	idHex := r.Id.String()
	paths, ok := idx.byID[idHex]
	if !ok {
		paths = make(map[string]struct{})
		idx.byID[idHex] = paths
	}
	paths[r.Path] = struct{}{}
}

// removeLocked removes the resource at path from both maps, pruning an
// orphaned id (I3). Reports whether a resource was present.
func (idx *Index) removeLocked(path string) bool {
	r, ok := idx.byPath[path]
	if !ok {
		return false
	}
	delete(idx.byPath, path)

	idHex := r.Id.String()
	if paths, ok := idx.byID[idHex]; ok {
		delete(paths, path)
		if len(paths) == 0 {
			delete(idx.byID, idHex)
		}
	}
	return true
}
