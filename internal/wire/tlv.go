package wire

import (
	"errors"
	"fmt"
)

// Errors returned by Decode. They are also wrapped with more context via
// fmt.Errorf("...: %w", ...), matching the teacher's error style.
var (
	ErrTruncated    = errors.New("wire: message truncated")
	ErrBadTag       = errors.New("wire: tag is not strictly ascending")
	ErrBadTLV       = errors.New("wire: malformed tagged-map header")
	ErrTooManyTags  = errors.New("wire: too many tags")
	ErrFieldMissing = errors.New("wire: field missing")
)

// maxTags bounds num_tags per spec.md §4.3; it guards against absurd
// allocations from a hostile header before any further validation.
const maxTags = 1024

// Field is one tag/value pair to be encoded by Encode. Fields need not be
// pre-sorted; Encode sorts them by Tag before writing.
type Field struct {
	Tag   Tag
	Value []byte
}

// Message is a decoded Roughtime tagged map: an ordered association from
// Tag to an opaque byte value, aliasing the original decode buffer. Every
// value is exactly as it appeared on the wire (4-byte-padded); callers
// that need the unpadded, byte-exact bytes of a signed submessage (SREP,
// DELE, CERT) get that automatically, since Message never re-encodes on
// read.
type Message struct {
	tags   []Tag
	values [][]byte
}

// Encode sorts fields by tag, pads each value to a multiple of 4 bytes
// with zeroes, and produces the wire encoding described in spec.md §4.3.
// It returns an error if two fields share a tag.
func Encode(fields []Field) ([]byte, error) {
	fs := append([]Field(nil), fields...)
	sortFields(fs)
	for i := 1; i < len(fs); i++ {
		if fs[i-1].Tag == fs[i].Tag {
			return nil, fmt.Errorf("wire: duplicate tag %v", fs[i].Tag)
		}
	}
	n := uint32(len(fs))
	if n > maxTags {
		return nil, ErrTooManyTags
	}

	padded := make([][]byte, n)
	bodyLen := 0
	for i, f := range fs {
		v := f.Value
		if pad := (4 - len(v)%4) % 4; pad != 0 {
			v2 := make([]byte, len(v)+pad)
			copy(v2, v)
			v = v2
		}
		padded[i] = v
		bodyLen += len(v)
	}

	hdrLen := 4
	if n > 1 {
		hdrLen += 4 * int(n-1)
	}
	if n > 0 {
		hdrLen += 4 * int(n)
	}
	buf := make([]byte, hdrLen+bodyLen)
	putUint32At(buf, 0, n)

	off := 4
	cum := uint32(0)
	for i := uint32(0); i+1 < n; i++ {
		cum += uint32(len(padded[i]))
		putUint32At(buf, off, cum)
		off += 4
	}
	for _, f := range fs {
		putUint32At(buf, off, uint32(f.Tag))
		off += 4
	}
	for _, v := range padded {
		copy(buf[off:], v)
		off += len(v)
	}
	return buf, nil
}

func putUint32At(buf []byte, off int, v uint32) {
	copy(buf[off:off+4], PutUint32(v))
}

func sortFields(fs []Field) {
	// insertion sort: num_tags is capped at maxTags and always tiny in
	// practice (a handful of top-level tags), so O(n^2) is not a concern.
	for i := 1; i < len(fs); i++ {
		for j := i; j > 0 && fs[j-1].Tag > fs[j].Tag; j-- {
			fs[j-1], fs[j] = fs[j], fs[j-1]
		}
	}
}

// Decode validates and parses a Roughtime tagged-map message per
// spec.md §4.3. The returned Message's values alias buf.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < 4 {
		return nil, ErrTruncated
	}
	n, _ := Uint32(buf[:4])
	if n > maxTags {
		return nil, ErrTooManyTags
	}

	hdrLen := 4
	if n > 1 {
		hdrLen += 4 * int(n-1)
	}
	if n > 0 {
		hdrLen += 4 * int(n)
	}
	if len(buf) < hdrLen {
		return nil, ErrTruncated
	}
	if n == 0 {
		return &Message{}, nil
	}

	offsets := make([]uint32, n+1)
	for i := uint32(0); i+1 < n; i++ {
		o, _ := Uint32(buf[4+4*i : 8+4*i])
		offsets[i+1] = o
	}
	payloadLen := uint32(len(buf) - hdrLen)
	offsets[n] = payloadLen

	prev := uint32(0)
	for i := uint32(1); i <= n; i++ {
		o := offsets[i]
		if o < prev || o%4 != 0 {
			return nil, ErrBadTLV
		}
		if i < n && o == 0 {
			return nil, ErrBadTLV
		}
		prev = o
	}
	if offsets[n] != payloadLen {
		return nil, ErrBadTLV
	}

	tagsOff := 4
	if n > 1 {
		tagsOff += 4 * int(n-1)
	}
	tags := make([]Tag, n)
	var lastTag uint32
	for i := uint32(0); i < n; i++ {
		t, _ := Uint32(buf[tagsOff+4*int(i) : tagsOff+4*int(i)+4])
		if i > 0 && t <= lastTag {
			return nil, ErrBadTag
		}
		lastTag = t
		tags[i] = Tag(t)
	}

	body := buf[hdrLen:]
	values := make([][]byte, n)
	for i := uint32(0); i < n; i++ {
		values[i] = body[offsets[i]:offsets[i+1]]
	}
	return &Message{tags: tags, values: values}, nil
}

// Tags returns the message's tags in ascending order.
func (m *Message) Tags() []Tag {
	return m.tags
}

// Get returns the raw value for t, or false if t is not present.
func (m *Message) Get(t Tag) ([]byte, bool) {
	for i, tag := range m.tags {
		if tag == t {
			return m.values[i], true
		}
	}
	return nil, false
}

// Require returns the raw value for t, or ErrFieldMissing wrapped with t.
func (m *Message) Require(t Tag) ([]byte, error) {
	v, ok := m.Get(t)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrFieldMissing, t)
	}
	return v, nil
}

// U32 decodes the value for t as a little-endian uint32 (VER, RADI, TYPE,
// INDX per spec.md §4.3's recursive-decoding table).
func (m *Message) U32(t Tag) (uint32, error) {
	v, err := m.Require(t)
	if err != nil {
		return 0, err
	}
	return Uint32(v)
}

// U64 decodes the value for t as a little-endian uint64 (MIDP, MINT, MAXT).
func (m *Message) U64(t Tag) (uint64, error) {
	v, err := m.Require(t)
	if err != nil {
		return 0, err
	}
	return Uint64(v)
}

// U32List decodes the value for t as a list of little-endian uint32s
// (VERS).
func (m *Message) U32List(t Tag) ([]uint32, error) {
	v, err := m.Require(t)
	if err != nil {
		return nil, err
	}
	return Uint32List(v)
}

// Nested decodes the value for t as a nested tagged-map message (SREP,
// CERT, DELE). It also returns the raw, byte-exact bytes of that
// submessage, since signatures are verified over those raw bytes, never
// a re-encoding.
func (m *Message) Nested(t Tag) (sub *Message, raw []byte, err error) {
	v, err := m.Require(t)
	if err != nil {
		return nil, nil, err
	}
	sub, err = Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return sub, v, nil
}
