// Copyright 2018 Axel Wagner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wire implements the low-level Roughtime wire format: the 4-byte
// tag codec, the tagged-map (TLV) message codec and the ROUGHTIM packet
// frame. It has no notion of protocol versions or signatures; those live in
// the packages built on top of it.
package wire

import (
	"encoding/binary"
	"strconv"
)

// Tag represents a wire-format tag. Tags compare and sort as little-endian
// uint32, which is also the order Encode writes them in and Decode requires.
type Tag uint32

// Well-known tags used across every Roughtime version.
const (
	SIG  Tag = 0x00474953
	NONC Tag = 0x434e4f4e
	DELE Tag = 0x454c4544
	PATH Tag = 0x48544150
	RADI Tag = 0x49444152
	PUBK Tag = 0x4b425550
	MIDP Tag = 0x5044494d
	SREP Tag = 0x50455253
	MAXT Tag = 0x5458414d
	ROOT Tag = 0x544f4f52
	CERT Tag = 0x54524543
	MINT Tag = 0x544e494d
	INDX Tag = 0x58444e49
	TYPE Tag = 0x45505954
	VER  Tag = 0x00524556
	VERS Tag = 0x53524556
	SRV  Tag = 0x00565253

	// PAD is Google's v0 padding tag: the raw bytes "PAD" followed by
	// 0xFF, distinct from the NUL-padded ASCII tags below.
	PAD Tag = 0xff444150
	// PADZ is the current IETF-draft padding tag "ZZZZ".
	PADZ Tag = 0x5a5a5a5a
	// PADNUL is the early-IETF-draft padding tag, ASCII "PAD" NUL-padded.
	PADNUL Tag = 0x00444150
)

// MakeTag encodes a 1-to-4-character ASCII name as a Tag, right-padding
// with NUL bytes. It panics if name is empty, longer than 4 bytes or
// contains a byte that is not printable ASCII.
func MakeTag(name string) Tag {
	if len(name) == 0 || len(name) > 4 {
		panic("wire: tag name must be 1 to 4 bytes")
	}
	var b [4]byte
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			panic("wire: tag name must be printable ASCII")
		}
		b[i] = name[i]
	}
	return Tag(binary.LittleEndian.Uint32(b[:]))
}

// MakeTagRaw builds a Tag from four raw bytes, passed through unchanged.
// Use this for tags such as Google's PAD\xff, which is not expressible as
// printable-ASCII-or-NUL.
func MakeTagRaw(b [4]byte) Tag {
	return Tag(binary.LittleEndian.Uint32(b[:]))
}

// Bytes returns the 4-byte little-endian encoding of t.
func (t Tag) Bytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(t))
	return b
}

// String implements fmt.Stringer. It renders the tag's four bytes as a
// Go-quoted string without the surrounding quotes: printable ASCII bytes
// appear as themselves, NUL and every other byte as an escape (so VER
// renders as VER\x00 and Google's padding tag as PAD\xff).
func (t Tag) String() string {
	b := t.Bytes()
	s := strconv.Quote(string(b[:]))
	return s[1 : len(s)-1]
}
