// Package scanner walks an index root and yields candidate resources, per
// SPEC_FULL.md §4.2. It never indexes the root itself, hidden entries, the
// index's own .ark directory, or any path matching a configured ignore
// pattern, and it follows symlinks only onto regular files that live under
// the root.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arklib/ark/internal/hashid"
)

// ArkDir is the managed metadata directory name, excluded from every scan.
const ArkDir = ".ark"

// Entry is a single scanned candidate: its absolute path, its last
// modification time, and its computed content id.
type Entry struct {
	AbsPath      string
	LastModified time.Time
	Id           hashid.Id
}

// Logger is the minimal logging seam the scanner needs; logging.Adapter
// satisfies it, and tests can pass a no-op stand-in.
type Logger interface {
	Warnf(format string, args ...any)
}

// NopLogger discards every message.
type NopLogger struct{}

func (NopLogger) Warnf(string, ...any) {}

// Scanner walks a root directory and computes content ids for every
// surviving entry using the configured Hasher.
type Scanner struct {
	Hasher Hasher
	Logger Logger
	// Concurrency bounds how many files are hashed in parallel. Defaults
	// to 1 (no parallelism) when <= 0.
	Concurrency int
	// IgnorePatterns are extra root-relative glob patterns to exclude,
	// beyond the built-in dotfile and .ark rules. A pattern ending in "/"
	// excludes a whole directory subtree by prefix; any other pattern is
	// matched with filepath.Match against both the entry's base name and
	// its full root-relative path.
	IgnorePatterns []string
}

// matchesIgnore reports whether rel (root-relative, slash-separated) is
// excluded by one of s.IgnorePatterns.
func (s *Scanner) matchesIgnore(rel string) bool {
	for _, raw := range s.IgnorePatterns {
		pat := strings.TrimSpace(raw)
		if pat == "" {
			continue
		}
		pat = filepath.ToSlash(pat)
		pat = strings.TrimPrefix(pat, "./")

		if strings.HasSuffix(pat, "/") {
			dirPat := strings.TrimSuffix(pat, "/")
			if rel == dirPat || strings.HasPrefix(rel, dirPat+"/") {
				return true
			}
			continue
		}

		if ok, _ := filepath.Match(pat, filepath.Base(rel)); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// Hasher is the subset of hashid.Hasher the scanner needs.
type Hasher interface {
	HashPath(path string) (hashid.Id, error)
}

// New constructs a Scanner with the given Hasher and default settings.
func New(h Hasher) *Scanner {
	return &Scanner{Hasher: h, Logger: NopLogger{}, Concurrency: 4}
}

// Scan walks root and returns every candidate entry. The walk itself is
// single-threaded and strictly ordered; hashing of discovered files runs
// on a bounded worker pool, but Scan only returns once every worker has
// finished, so the result is an atomic snapshot — no partial state is ever
// observable by a caller. Per-entry errors are logged and the entry is
// skipped; only a failure to read the root itself is returned.
func (s *Scanner) Scan(root string) ([]Entry, error) {
	logger := s.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	type candidate struct {
		absPath      string
		lastModified time.Time
		size         int64
	}

	var candidates []candidate

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warnf("scan: skipping %s: %v", path, err)
			return nil
		}

		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if rel, relErr := filepath.Rel(root, path); relErr == nil && s.matchesIgnore(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		resolvedPath := path
		info, err := d.Info()
		if err != nil {
			logger.Warnf("scan: skipping %s: %v", path, err)
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				logger.Warnf("scan: skipping unreadable symlink %s: %v", path, err)
				return nil
			}
			rel, err := filepath.Rel(root, target)
			if err != nil || strings.HasPrefix(rel, "..") {
				logger.Warnf("scan: skipping symlink outside root %s", path)
				return nil
			}
			targetInfo, err := os.Stat(target)
			if err != nil {
				logger.Warnf("scan: skipping broken symlink %s: %v", path, err)
				return nil
			}
			if !targetInfo.Mode().IsRegular() {
				return nil
			}
			info = targetInfo
			resolvedPath = target
		} else if !info.Mode().IsRegular() {
			return nil
		}

		if info.Size() == 0 {
			return nil
		}

		candidates = append(candidates, candidate{
			absPath:      resolvedPath,
			lastModified: info.ModTime(),
			size:         info.Size(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	results := make([]Entry, len(candidates))

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			id, err := s.Hasher.HashPath(c.absPath)
			if err != nil {
				logger.Warnf("scan: failed to hash %s: %v", c.absPath, err)
				return nil
			}
			results[i] = Entry{
				AbsPath:      c.absPath,
				LastModified: c.lastModified,
				Id:           id,
			}
			return nil
		})
	}
	// errgroup.Group.Go's func never returns a non-nil error above, so Wait
	// cannot fail; individual hashing failures are logged and dropped
	// in place instead of aborting the whole scan.
	_ = g.Wait()

	final := results[:0]
	for _, r := range results {
		if r.Id.IsZero() && r.AbsPath == "" {
			continue
		}
		final = append(final, r)
	}
	return final, nil
}
