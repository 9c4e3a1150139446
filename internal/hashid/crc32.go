package hashid

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/crc32"

	"github.com/arklib/ark/internal/arkerr"
)

// CRC32Hasher computes non-cryptographic 32-bit checksums using the IEEE
// polynomial. Collisions under CRC32Hasher may be identical content, or
// merely content that happens to hash to the same checksum.
type CRC32Hasher struct{}

// NewCRC32Hasher constructs a CRC32Hasher.
func NewCRC32Hasher() CRC32Hasher { return CRC32Hasher{} }

func (CRC32Hasher) Name() string { return "crc32" }

func (CRC32Hasher) HashPath(path string) (Id, error) {
	f, err := os.Open(path)
	if err != nil {
		return Id{}, arkerr.Io(path, err)
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return Id{}, arkerr.Hash(path, err)
	}
	return sumToID(h.Sum32()), nil
}

func (CRC32Hasher) HashBytes(data []byte) Id {
	return sumToID(crc32.ChecksumIEEE(data))
}

func sumToID(sum uint32) Id {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], sum)
	return New(buf[:])
}
