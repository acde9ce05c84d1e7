package wire

import (
	"bytes"
	"errors"
)

// Magic is the 8-byte ASCII marker that opens an IETF-draft (version ≥ 1)
// packet. Google-era (version 0) traffic has no frame at all; DecodePacket
// falls back to treating its whole input as a bare TLV message when Magic
// is absent.
var Magic = []byte("ROUGHTIM")

var (
	ErrBadMagic  = errors.New("wire: bad packet magic")
	ErrTooSmall  = errors.New("wire: packet smaller than policy minimum")
	ErrBadFraming = errors.New("wire: inconsistent packet length")
)

// EncodePacket prepends Magic and a little-endian uint32 message length to
// msg, per spec.md §4.4.
func EncodePacket(msg []byte) []byte {
	buf := make([]byte, 0, 12+len(msg))
	buf = append(buf, Magic...)
	buf = append(buf, PutUint32(uint32(len(msg)))...)
	buf = append(buf, msg...)
	return buf
}

// DecodePacket parses buf as a framed packet, falling back to treating it
// as a bare TLV message if the magic is absent (Google v0 / IETF draft 0).
// minSize, if positive, additionally rejects any packet smaller than that
// many bytes; it implements the anti-amplification floor of spec.md §6.
func DecodePacket(buf []byte, minSize int) (msg []byte, err error) {
	if minSize > 0 && len(buf) < minSize {
		return nil, ErrTooSmall
	}
	if len(buf) < len(Magic) || !bytes.Equal(buf[:len(Magic)], Magic) {
		// Bare-TLV fallback: Google v0 and IETF draft 0 never frame.
		return buf, nil
	}
	if len(buf) < 12 {
		return nil, ErrTruncated
	}
	n, _ := Uint32(buf[8:12])
	if n%4 != 0 {
		return nil, ErrBadFraming
	}
	if int(n)+12 != len(buf) {
		return nil, ErrBadFraming
	}
	return buf[12:], nil
}
