package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arklib/ark/internal/arkerr"
	"github.com/arklib/ark/internal/hashid"
)

// ArkDir is the name of the managed metadata directory under root.
const ArkDir = ".ark"

// IndexFileName is the name of the persisted index document under ArkDir.
const IndexFileName = "index"

// systemTime mirrors Rust's serde encoding of std::time::SystemTime, so the
// on-disk document matches the format the original tool produced.
type systemTime struct {
	Secs  int64  `json:"secs_since_epoch"`
	Nanos uint32 `json:"nanos_since_epoch"`
}

func toSystemTime(t time.Time) systemTime {
	return systemTime{Secs: t.Unix(), Nanos: uint32(t.Nanosecond())}
}

func (s systemTime) toTime() time.Time {
	return time.Unix(s.Secs, int64(s.Nanos)).UTC()
}

type resourceDoc struct {
	Id           string     `json:"id"`
	Path         string     `json:"path"`
	LastModified systemTime `json:"last_modified"`
}

type indexDoc struct {
	Root   string                 `json:"root"`
	ByPath map[string]resourceDoc `json:"by_path"`
	ByID   map[string][]string    `json:"by_id"`
}

// Store writes the index to <root>/.ark/index as JSON, creating the .ark
// directory if absent. The write is atomic: it writes to a temp file in
// the same directory and renames it over the destination.
func (idx *Index) Store() error {
	idx.mu.RLock()
	doc := indexDoc{
		Root:   idx.root,
		ByPath: make(map[string]resourceDoc, len(idx.byPath)),
		ByID:   make(map[string][]string, len(idx.byID)),
	}
	for p, r := range idx.byPath {
		doc.ByPath[p] = resourceDoc{
			Id:           r.Id.String(),
			Path:         r.Path,
			LastModified: toSystemTime(r.LastModified),
		}
	}
	for idHex, paths := range idx.byID {
		list := make([]string, 0, len(paths))
		for p := range paths {
			list = append(list, p)
		}
		doc.ByID[idHex] = list
	}
	root := idx.root
	idx.mu.RUnlock()

	dir := filepath.Join(root, ArkDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return arkerr.Io(dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return arkerr.Parse(root, err)
	}

	dest := filepath.Join(dir, IndexFileName)
	tmp, err := os.CreateTemp(dir, IndexFileName+".tmp-*")
	if err != nil {
		return arkerr.Io(dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return arkerr.Io(tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return arkerr.Io(tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return arkerr.Io(dest, err)
	}
	return nil
}

// Load reads and parses the index document at <root>/.ark/index. It
// recomputes by_id from by_path, so a document with a stale or missing
// by_id section still loads correctly.
func Load(root string) (*Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, arkerr.Io(root, err)
	}
	canonical, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, arkerr.Io(root, err)
	}

	path := filepath.Join(canonical, ArkDir, IndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, arkerr.Io(path, err)
	}

	var doc indexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, arkerr.Parse(path, err)
	}

	idx := newEmpty(canonical)
	for relPath, rd := range doc.ByPath {
		id, err := hashid.ParseHex(rd.Id)
		if err != nil {
			return nil, arkerr.Parse(path, err)
		}
		idx.insertLocked(&Resource{
			Id:           id,
			Path:         relPath,
			LastModified: rd.LastModified.toTime(),
		})
	}
	return idx, nil
}

// LoadOrBuild loads the persisted index at root if present; otherwise it
// builds one from scratch via s and stores the result. When refresh is
// true, a successfully loaded index is additionally reconciled against
// current filesystem state via UpdateAll and re-persisted via Store
// before being returned.
func LoadOrBuild(root string, s Scanner, refresh bool, logger Logger) (*Index, error) {
	idx, err := Load(root)
	if err != nil {
		if !arkerr.HasKind(err, arkerr.KindIo) {
			return nil, err
		}
		idx, err = Build(root, s)
		if err != nil {
			return nil, err
		}
		if err := idx.Store(); err != nil {
			return nil, err
		}
		return idx, nil
	}

	if refresh {
		if _, err := idx.UpdateAll(s, logger); err != nil {
			return nil, err
		}
		if err := idx.Store(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}
