package wire

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
)

// ErrBadLength is returned by the fixed-width decoders below when the
// input is not exactly the declared width.
var ErrBadLength = errors.New("wire: buffer has wrong length")

// PutUint32 encodes v as 4 little-endian bytes.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes 4 little-endian bytes. It fails if len(b) != 4.
func Uint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrBadLength
	}
	return binary.LittleEndian.Uint32(b), nil
}

// PutUint64 encodes v as 8 little-endian bytes.
func PutUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Uint64 decodes 8 little-endian bytes. It fails if len(b) != 8.
func Uint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, ErrBadLength
	}
	return binary.LittleEndian.Uint64(b), nil
}

// PutUint32List encodes vs as a concatenation of little-endian uint32s, in
// the order given (used for VERS).
func PutUint32List(vs []uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}

// Uint32List decodes a concatenation of little-endian uint32s. It fails if
// len(b) is not a multiple of 4.
func Uint32List(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, ErrBadLength
	}
	vs := make([]uint32, len(b)/4)
	for i := range vs {
		vs[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return vs, nil
}

// HashPrefixed returns the first n bytes of SHA-512(prefix || parts...),
// where prefix (if non-nil) is written as a single byte before any part.
// n must be 32 or 64. This is the one hashing primitive the Merkle engine
// (leaf/node domain separation) and SRV share; both feed the prefix and
// each part as separate Write calls instead of building a throwaway
// concatenated buffer.
func HashPrefixed(n int, prefix *byte, parts ...[]byte) []byte {
	if n != 32 && n != 64 {
		panic("wire: HashPrefixed: n must be 32 or 64")
	}
	h := sha512.New()
	if prefix != nil {
		h.Write([]byte{*prefix})
	}
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	return sum[:n]
}
