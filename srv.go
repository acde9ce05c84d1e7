package roughtime

import "github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"

// SRV computes the server identifier a client places in a request to bind
// it to one server, per spec.md §4.6: the first 32 bytes of
// SHA-512(0xFF || longtermPub).
func SRV(longtermPub [32]byte) [32]byte {
	const prefix byte = 0xff
	sum := wire.HashPrefixed(32, &prefix, longtermPub[:])
	var out [32]byte
	copy(out[:], sum)
	return out
}
