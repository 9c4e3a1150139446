// Package arkerr defines the typed error kinds the ark index surfaces to
// callers, per the error handling design in SPEC_FULL.md §7.
package arkerr

import (
	"errors"
	"fmt"
)

// Kind classifies the failure reported by an *Error.
type Kind string

const (
	// KindIo means a filesystem operation failed.
	KindIo Kind = "io"
	// KindHash means the Hasher failed on readable bytes.
	KindHash Kind = "hash"
	// KindParse means an Id hex string was malformed or persisted JSON was corrupt.
	KindParse Kind = "parse"
	// KindPath means a path was expected-present and missing, expected-absent
	// and present, not under root, or could not be stripped of the root prefix.
	KindPath Kind = "path"
	// KindEmpty means an operation rejected a zero-byte file.
	KindEmpty Kind = "empty"
	// KindNotIndexed means a track operation named a path the index did not know.
	KindNotIndexed Kind = "not_indexed"
	// KindAlreadyIndexed means track_addition named a path already present in the index.
	KindAlreadyIndexed Kind = "already_indexed"
	// KindStillExists means track_removal named a path that is still on disk.
	KindStillExists Kind = "still_exists"
)

// Error is the typed error the index and its collaborators return.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %q", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, arkerr.New(arkerr.KindEmpty, "", nil)) or more commonly
// check Kind via errors.As.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Io wraps a filesystem error against the given path.
func Io(path string, err error) *Error { return New(KindIo, path, err) }

// Hash wraps a hasher failure against the given path.
func Hash(path string, err error) *Error { return New(KindHash, path, err) }

// Parse reports a malformed hex id or corrupt persisted document.
func Parse(detail string, err error) *Error { return New(KindParse, detail, err) }

// PathErr reports a path precondition violation.
func PathErr(path string, err error) *Error { return New(KindPath, path, err) }

// Empty reports that path refers to a zero-byte file.
func Empty(path string) *Error { return New(KindEmpty, path, nil) }

// NotIndexed reports that path is not currently in the index.
func NotIndexed(path string) *Error { return New(KindNotIndexed, path, nil) }

// AlreadyIndexed reports that path is already present in the index.
func AlreadyIndexed(path string) *Error { return New(KindAlreadyIndexed, path, nil) }

// StillExists reports that path still exists on disk.
func StillExists(path string) *Error { return New(KindStillExists, path, nil) }

// KindOf returns the Kind carried by err, if err is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// HasKind reports whether err is (or wraps) an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
