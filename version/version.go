// Package version is Roughtime's version-dispatch layer: a single pure
// policy table, per spec.md §4.8 and §9's redesign note ("re-architect as
// a pure policy table ... this isolates compatibility risk to a small,
// testable unit"). The teacher speaks only Google v0 and has no
// precedent for this package; it is built directly from spec.md's
// version table.
package version

import (
	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/merkle"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
)

// Version is a Roughtime protocol version identifier.
type Version uint32

// Recognized versions, spec.md §3.
const (
	Google      Version = 0x00000000
	IETF1       Version = 0x80000001
	IETF2       Version = 0x80000002
	IETF3       Version = 0x80000003
	IETF4       Version = 0x80000004
	IETF6       Version = 0x80000006
	IETF8       Version = 0x80000008
	IETF9       Version = 0x80000009
	IETFa       Version = 0x8000000a
	IETFb       Version = 0x8000000b
	Fiducial Version = 0x8000000c // current, default

	// Sentinel is a request-building convenience: like Google, a request
	// built for Sentinel is never framed or VER-tagged (spec.md §4.9).
	Sentinel Version = 0x80000000
)

// Supported lists every version this package recognizes, in ascending
// order. 5 and 7 are expired IETF drafts and are intentionally absent.
var Supported = []Version{
	Google, IETF1, IETF2, IETF3, IETF4, IETF6, IETF8, IETF9, IETFa, IETFb, Fiducial,
}

func isSupported(v Version) bool {
	for _, s := range Supported {
		if s == v {
			return true
		}
	}
	return false
}

// NonceLength returns the client nonce length for v: 64 bytes for the
// 64-byte-nonce era, 32 bytes afterward.
func NonceLength(v Version) int {
	switch v {
	case Google, IETF1, IETF2, IETF3, IETF4:
		return 64
	default:
		return 32
	}
}

// PadTag returns the tag used to pad a request out to its minimum size.
func PadTag(v Version) wire.Tag {
	switch {
	case v == Google:
		return wire.PAD
	case v >= IETF8 && v <= Fiducial:
		return wire.PADZ
	default:
		return wire.PADNUL
	}
}

// MerkleOptions returns the Merkle hash size / ordering for v.
func MerkleOptions(v Version) merkle.Options {
	if v == Google {
		return merkle.Options{HashSize: 64, Order: merkle.Natural}
	}
	return merkle.Options{HashSize: 32, Order: merkle.Natural}
}

// MerkleLeafData selects the bytes hashed at the base of the tree: the
// nonce for v ≤ 0x8000000b, or the entire client request packet for
// v ≥ 0x8000000c.
func MerkleLeafData(v Version, nonce, requestPacket []byte) []byte {
	if v >= Fiducial {
		return requestPacket
	}
	return nonce
}

// DeleContext returns the signature context DELE is signed under.
func DeleContext(v Version) string {
	if v < Fiducial {
		return sig.ContextDELELegacy
	}
	return sig.ContextDELE
}

// ChooseVersion negotiates the version to respond with, given the
// client's offered VERS list, per spec.md §4.8.
func ChooseVersion(clientVers []uint32) Version {
	if len(clientVers) == 0 {
		return Google
	}
	for _, v := range clientVers {
		if Version(v) == Sentinel {
			// The sentinel stands in for "no particular version
			// preference": build/interpret as bare Google-style v0.
			return Google
		}
	}
	overlap := make(map[Version]bool)
	for _, v := range clientVers {
		cv := Version(v)
		// Version 1 is negotiable even though it is not in Supported.
		if isSupported(cv) || cv == 1 {
			overlap[cv] = true
		}
	}
	if len(overlap) == 0 {
		return Fiducial
	}
	if overlap[1] {
		return Version(1)
	}
	var max Version
	first := true
	for v := range overlap {
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

// ValidateNonce checks nonce has the length v requires.
func ValidateNonce(v Version, nonce []byte) error {
	if len(nonce) != NonceLength(v) {
		return ErrBadNonceLength
	}
	return nil
}

// ValidateType checks a request's TYPE field. Only the fiducial version
// constrains TYPE; earlier versions ignore it.
func ValidateType(v Version, typeBytes []byte) error {
	if v != Fiducial {
		return nil
	}
	if len(typeBytes) != 4 || typeBytes[0] != 0 || typeBytes[1] != 0 || typeBytes[2] != 0 || typeBytes[3] != 0 {
		return ErrBadType
	}
	return nil
}

// ValidateVers checks a request's VERS field: nonempty, at most 32
// entries, strictly ascending. Only the fiducial version imposes this.
func ValidateVers(v Version, vers []uint32) error {
	if v != Fiducial {
		return nil
	}
	if len(vers) == 0 || len(vers) > 32 {
		return ErrBadVers
	}
	for i := 1; i < len(vers); i++ {
		if vers[i] <= vers[i-1] {
			return ErrBadVers
		}
	}
	return nil
}

// CanBatch reports whether responses for v can share a single SREP
// across a batch. v1 and v2 place NONC inside the signed SREP, which
// precludes sharing: spec.md §4.8.
func CanBatch(v Version) bool {
	return v != IETF1 && v != IETF2
}

// RequiresVersionField reports whether v's request schema carries a VER
// tag.
func RequiresVersionField(v Version) bool {
	return v >= IETF1
}

// SupportsSRV reports whether v's request schema allows an SRV tag.
func SupportsSRV(v Version) bool {
	return v >= IETFa
}

// RequiresTypeField reports whether v's request schema carries TYPE.
func RequiresTypeField(v Version) bool {
	return v >= Fiducial
}
