// Package checksum computes BLAKE3 content digests. The digest doubles as the
// dedup key for the object store, so it must be deterministic for identical
// bytes regardless of path.
package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// readBufSize is the streaming read buffer for file hashing.
const readBufSize = 64 * 1024

// Size is the digest width in bytes.
const Size = 32

// Sum is a fixed-width BLAKE3 digest. It is hex-encoded only at the
// persistence and object-store boundaries.
type Sum [Size]byte

// String returns the lowercase hex encoding used in the database and as the
// object filename.
func (s Sum) String() string {
	return hex.EncodeToString(s[:])
}

// Parse decodes the external hex encoding back into a Sum.
func Parse(text string) (Sum, error) {
	var s Sum
	raw, err := hex.DecodeString(text)
	if err != nil {
		return s, fmt.Errorf("parse checksum %q: %w", text, err)
	}
	if len(raw) != Size {
		return s, fmt.Errorf("parse checksum %q: got %d bytes, want %d", text, len(raw), Size)
	}
	copy(s[:], raw)
	return s, nil
}

// Bytes digests an in-memory buffer.
func Bytes(data []byte) Sum {
	return blake3.Sum256(data)
}

// File streams path through BLAKE3 and returns its digest and size.
func File(path string) (Sum, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sum{}, 0, err
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, readBufSize)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return Sum{}, 0, fmt.Errorf("read %q: %w", path, err)
	}

	var s Sum
	copy(s[:], h.Sum(nil))
	return s, n, nil
}
