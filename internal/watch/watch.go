// Package watch turns filesystem notifications into index mutations. Its
// shape generalises the crawl-then-watch-then-reconcile lifecycle of a
// note-vault cache into a long-lived loop over a content-addressed index:
// canonicalise and load-or-build, install a recursive watch, and dispatch
// each notification to the most specific index operation available.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/arklib/ark/internal/arkerr"
	"github.com/arklib/ark/internal/hashid"
	"github.com/arklib/ark/internal/index"
)

// Watcher abstracts filesystem notifications so the loop can be tested
// without touching a real filesystem.
type Watcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsNotifyWatcher struct {
	*fsnotify.Watcher
}

func (f *fsNotifyWatcher) Events() <-chan fsnotify.Event { return f.Watcher.Events }
func (f *fsNotifyWatcher) Errors() <-chan error          { return f.Watcher.Errors }

// Logger is the minimal logging seam the loop needs.
type Logger interface {
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Infof(string, ...any) {}

// EventKind distinguishes the two shapes of outbound notification.
type EventKind string

const (
	// KindUpdatedOne reports a single-path track operation applied.
	KindUpdatedOne EventKind = "updated_one"
	// KindUpdatedAll reports a full UpdateAll rescan applied.
	KindUpdatedAll EventKind = "updated_all"
)

// Event is emitted after every mutation the loop applies to the index, in
// the exact order the mutations were applied.
type Event struct {
	Kind   EventKind
	Path   string           // set when Kind == KindUpdatedOne
	Update index.IndexUpdate // set when Kind == KindUpdatedAll
}

// State is the loop's lifecycle phase.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateTerminating
)

// Scanner is the subset of scanner.Scanner the loop's Build/UpdateAll calls
// need; kept as an interface so tests can stub it.
type Scanner = index.Scanner

// Options configures a Loop.
type Options struct {
	Root    string
	Hasher  hashid.Hasher
	Scanner Scanner
	Logger  Logger
	// Events, if non-nil, receives one Event per applied mutation. The
	// loop back-pressures on a full channel: a slow consumer slows down
	// the whole watch loop, never drops an event.
	Events chan<- Event

	newWatcher func() (Watcher, error)
}

// Loop owns an Index and a Watcher for the lifetime of a watch session.
type Loop struct {
	root    string
	idx     *index.Index
	hasher  hashid.Hasher
	scanner Scanner
	logger  Logger
	events  chan<- Event

	watcher    Watcher
	newWatcher func() (Watcher, error)

	state State
}

// New canonicalises root, loads or builds the index, stores it, and
// installs a recursive filesystem watcher. Construction corresponds to
// Starting; the returned Loop is already in the Running state.
func New(opts Options) (*Loop, error) {
	if opts.Root == "" {
		return nil, errors.New("watch: root is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	idx, err := index.LoadOrBuild(opts.Root, opts.Scanner, true, logger)
	if err != nil {
		return nil, err
	}
	if err := idx.Store(); err != nil {
		return nil, err
	}

	newWatcher := opts.newWatcher
	if newWatcher == nil {
		newWatcher = func() (Watcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, fmt.Errorf("watch: create watcher: %w", err)
			}
			return &fsNotifyWatcher{Watcher: w}, nil
		}
	}

	w, err := newWatcher()
	if err != nil {
		return nil, err
	}
	if err := installRecursive(w, idx.Root()); err != nil {
		w.Close()
		return nil, err
	}

	return &Loop{
		root:       idx.Root(),
		idx:        idx,
		hasher:     opts.Hasher,
		scanner:    opts.Scanner,
		logger:     logger,
		events:     opts.Events,
		watcher:    w,
		newWatcher: newWatcher,
		state:      StateRunning,
	}, nil
}

// Index returns the loop's managed index, for callers that want to query
// it directly (e.g. the CLI printing a startup summary).
func (l *Loop) Index() *index.Index { return l.idx }

// State reports the loop's current lifecycle phase.
func (l *Loop) State() State { return l.state }

// Close releases the underlying filesystem watcher.
func (l *Loop) Close() error {
	return l.watcher.Close()
}

// Run drains notifications until ctx is cancelled or the watcher's event
// or error channel is closed; in those cases it returns nil. It returns a
// non-nil error only for an unrecoverable failure (an Io error against the
// root, or a failed watcher rebuild). Either way the loop is in
// StateTerminating once Run returns.
func (l *Loop) Run(ctx context.Context) error {
	defer func() { l.state = StateTerminating }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-l.watcher.Events():
			if !ok {
				return nil
			}
			if err := l.handle(ctx, evt); err != nil {
				if arkerr.HasKind(err, arkerr.KindIo) && isRootIoError(err, l.root) {
					return err
				}
				l.logger.Warnf("watch: %v", err)
			}
		case err, ok := <-l.watcher.Errors():
			if !ok {
				return nil
			}
			l.logger.Warnf("watch: watcher error: %v, rebuilding watcher", err)
			if rebuildErr := l.rebuildWatcher(); rebuildErr != nil {
				return rebuildErr
			}
		}
	}
}

// rebuildWatcher replaces a failed fsnotify watcher and forces a full
// rescan, since whatever gap existed between the failure and the new
// watcher's installation may have hidden filesystem changes.
func (l *Loop) rebuildWatcher() error {
	_ = l.watcher.Close()
	w, err := l.newWatcher()
	if err != nil {
		return err
	}
	if err := installRecursive(w, l.root); err != nil {
		w.Close()
		return err
	}
	l.watcher = w
	return l.rescanDir(l.root)
}

func isRootIoError(err error, root string) bool {
	var e *arkerr.Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Path == root
}

// handle translates one fsnotify event into index mutations and emits the
// corresponding outbound Event(s).
func (l *Loop) handle(ctx context.Context, evt fsnotify.Event) error {
	if underArkDir(l.root, evt.Name) {
		return nil
	}

	relevant := evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
	if !relevant {
		return nil
	}

	// A newly created directory needs its own watch and a rescan (a full
	// UpdateAll over the root); everything else resolves to relative path +
	// track op.
	if evt.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := installRecursive(l.watcher, evt.Name); err != nil {
				l.logger.Warnf("watch: failed to install watch on %s: %v", evt.Name, err)
			}
			return l.rescanDir(evt.Name)
		}
	}

	rel, err := relTo(l.root, evt.Name)
	if err != nil {
		return nil
	}

	switch {
	case evt.Op&fsnotify.Create == fsnotify.Create:
		return l.trackAddition(rel)
	case evt.Op&fsnotify.Write == fsnotify.Write:
		if _, indexed := l.idx.GetByPath(rel); indexed {
			return l.trackModification(rel)
		}
		return l.trackAddition(rel)
	case evt.Op&fsnotify.Remove == fsnotify.Remove:
		return l.trackRemoval(rel)
	case evt.Op&fsnotify.Rename == fsnotify.Rename:
		// The old name no longer exists under this name; the new name (if
		// any) arrives as a separate Create. Treat this as a removal and
		// otherwise let a full UpdateAll catch anything inconsistent.
		if _, indexed := l.idx.GetByPath(rel); indexed {
			if err := l.trackRemoval(rel); err == nil {
				return nil
			}
		}
		return l.rescanDir(filepath.Dir(evt.Name))
	}
	return nil
}

func (l *Loop) trackAddition(rel string) error {
	if err := l.idx.TrackAddition(rel, l.hasher); err != nil {
		return err
	}
	return l.afterMutation(Event{Kind: KindUpdatedOne, Path: rel})
}

func (l *Loop) trackRemoval(rel string) error {
	if err := l.idx.TrackRemoval(rel); err != nil {
		return err
	}
	return l.afterMutation(Event{Kind: KindUpdatedOne, Path: rel})
}

func (l *Loop) trackModification(rel string) error {
	if err := l.idx.TrackModification(rel, l.hasher); err != nil {
		return err
	}
	return l.afterMutation(Event{Kind: KindUpdatedOne, Path: rel})
}

func (l *Loop) rescanDir(_ string) error {
	update, err := l.idx.UpdateAll(l.scanner, l.logger)
	if err != nil {
		return err
	}
	return l.afterMutation(Event{Kind: KindUpdatedAll, Update: update})
}

func (l *Loop) afterMutation(evt Event) error {
	if err := l.idx.Store(); err != nil {
		return err
	}
	if l.events != nil {
		l.events <- evt
	}
	return nil
}

func underArkDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == index.ArkDir || strings.HasPrefix(rel, index.ArkDir+"/")
}

func relTo(root, absPath string) (string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	return rel, nil
}

// installRecursive adds a watch on dir and every non-hidden subdirectory
// beneath it, mirroring the Scanner's own pruning rules so no .ark or
// dotfile subdirectory of dir gets a watch. dir itself is watched whatever
// its name, so a hidden directory created at runtime is watched.
func installRecursive(w Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name != filepath.Base(dir) && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
