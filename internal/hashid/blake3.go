package hashid

import (
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/arklib/ark/internal/arkerr"
)

// Blake3Hasher computes cryptographic, 256-bit content identifiers using
// BLAKE3. Collisions under Blake3Hasher mean identical content.
type Blake3Hasher struct{}

// NewBlake3Hasher constructs a Blake3Hasher.
func NewBlake3Hasher() Blake3Hasher { return Blake3Hasher{} }

func (Blake3Hasher) Name() string { return "blake3" }

func (Blake3Hasher) HashPath(path string) (Id, error) {
	f, err := os.Open(path)
	if err != nil {
		return Id{}, arkerr.Io(path, err)
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return Id{}, arkerr.Hash(path, err)
	}
	return New(h.Sum(nil)), nil
}

func (Blake3Hasher) HashBytes(data []byte) Id {
	h := blake3.New()
	h.Write(data)
	return New(h.Sum(nil))
}
