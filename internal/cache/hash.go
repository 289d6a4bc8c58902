package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"lukechampine.com/blake3"
)

// HashSize is the digest length in bytes.
const HashSize = 32

// Hash is a Blake3 digest of a file's contents, used only for change
// detection of File-sourced assets, never for naming. The JSON form is a
// standard-alphabet base64 string encoding exactly 32 bytes.
type Hash [HashSize]byte

// HashBytes digests a byte slice.
func HashBytes(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// HashFile digests a file's contents.
func HashFile(path string) (Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Hash{}, errors.WithStack(err)
	}
	return HashBytes(data), nil
}

func (h Hash) String() string {
	return base64.StdEncoding.EncodeToString(h[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid base64 hash %q: %w", s, err)
	}
	if len(decoded) != HashSize {
		return fmt.Errorf("hash must decode to %d bytes, got %d", HashSize, len(decoded))
	}
	copy(h[:], decoded)
	return nil
}
