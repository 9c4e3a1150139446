// Package hashid defines the content identifier type and the abstract
// Hasher capability the index consumes, per SPEC_FULL.md §4.1. The core
// never imports a concrete hash implementation directly through anything
// but this interface.
package hashid

import (
	"bytes"
	"encoding/hex"

	"github.com/arklib/ark/internal/arkerr"
)

// Id is an opaque, totally-ordered, serialisable content identifier
// produced by a Hasher. It is value-typed and cheap to clone. It wraps a
// byte slice, so it is not comparable with == and cannot be a map key
// itself; compare with Equal and key maps by String().
type Id struct {
	raw []byte
}

// New wraps raw hash bytes as an Id. Callers are Hasher implementations.
func New(raw []byte) Id {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return Id{raw: cp}
}

// String returns the canonical lowercase hex encoding of the id.
func (id Id) String() string {
	return hex.EncodeToString(id.raw)
}

// Bytes returns the raw bytes backing the id. The returned slice must not
// be mutated by the caller.
func (id Id) Bytes() []byte { return id.raw }

// IsZero reports whether id carries no bytes (the zero value).
func (id Id) IsZero() bool { return len(id.raw) == 0 }

// Equal reports whether id and other encode the same content identifier.
func (id Id) Equal(other Id) bool {
	return bytes.Equal(id.raw, other.raw)
}

// Compare gives a total order over Ids, first by byte length, then
// lexicographically, so Ids from different Hashers sort consistently.
func (id Id) Compare(other Id) int {
	if len(id.raw) != len(other.raw) {
		if len(id.raw) < len(other.raw) {
			return -1
		}
		return 1
	}
	return bytes.Compare(id.raw, other.raw)
}

// MarshalText implements encoding.TextMarshaler so an Id can be used
// directly as a JSON object key or value.
func (id Id) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Id) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseHex parses the canonical lowercase hex encoding of an Id.
// Odd length or non-hex digits fail with a KindParse *arkerr.Error.
func ParseHex(s string) (Id, error) {
	if len(s)%2 != 0 {
		return Id{}, arkerr.Parse(s, errOddLength)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Id{}, arkerr.Parse(s, err)
	}
	return Id{raw: raw}, nil
}

var errOddLength = errOdd{}

type errOdd struct{}

func (errOdd) Error() string { return "hex string has odd length" }

// Hasher maps file bytes (read from disk or passed directly) to an Id.
// Both operations must be deterministic. Concrete Hashers (BLAKE3, CRC32)
// differ only in their hash implementation, never in this contract.
type Hasher interface {
	// HashPath computes the Id of the file at path.
	HashPath(path string) (Id, error)
	// HashBytes computes the Id of an in-memory byte slice.
	HashBytes(data []byte) Id
	// Name identifies the hasher, e.g. for logging and config selection.
	Name() string
}
