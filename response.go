package roughtime

import (
	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// responseTypeBytes is the four-byte TYPE value a response carries:
// 01000000, per spec.md §4.11 ("TYPE in responses is the four LE bytes
// 01000000" — distinct from the all-zero TYPE a v≥0x8000000c request
// carries).
var responseTypeBytes = []byte{1, 0, 0, 0}

// AssembleResponse builds one of the four top-level response layouts
// spec.md §6 names, keyed by v. srepRaw and certRaw are the byte-exact
// bytes of the already-signed SREP and the already-minted CERT; nonce is
// only used (and required) for the version ranges whose layout carries a
// top-level NONC (0x80000003..0x8000000b and v >= Fiducial — v1/v2 carry
// their nonce inside SREP instead, via BuildSREP).
func AssembleResponse(v version.Version, srepRaw []byte, signature [64]byte, index uint32, path []byte, certRaw []byte, nonce []byte) ([]byte, error) {
	fields := []wire.Field{
		{Tag: wire.SIG, Value: signature[:]},
		{Tag: wire.INDX, Value: wire.PutUint32(index)},
		{Tag: wire.PATH, Value: path},
		{Tag: wire.SREP, Value: srepRaw},
		{Tag: wire.CERT, Value: certRaw},
	}
	switch {
	case v == version.Google:
		// SREP, SIG, INDX, PATH, CERT — no NONC/TYPE/VER at top level.
	case v == version.IETF1 || v == version.IETF2:
		fields = append(fields, wire.Field{Tag: wire.VER, Value: wire.PutUint32(uint32(v))})
	case v >= version.IETF3 && v <= version.IETFb:
		fields = append(fields,
			wire.Field{Tag: wire.NONC, Value: nonce},
			wire.Field{Tag: wire.TYPE, Value: responseTypeBytes},
			wire.Field{Tag: wire.VER, Value: wire.PutUint32(uint32(v))},
		)
	default: // v >= Fiducial
		fields = append(fields,
			wire.Field{Tag: wire.NONC, Value: nonce},
			wire.Field{Tag: wire.TYPE, Value: responseTypeBytes},
		)
	}
	return wire.Encode(fields)
}

// ParsedResponse is a decoded response, kept generic across all four
// layouts: fields that a given version's layout omits are left zero.
type ParsedResponse struct {
	Signature   [64]byte
	Index       uint32
	Path        []byte
	CertRaw     []byte
	Certificate Certificate
	SrepRaw     []byte
	Srep        SignedResponse
	Nonce       []byte // top-level NONC, if this layout carries one
	Version     version.Version
	HasTopVer   bool
}

// DecodeResponseEnvelope pulls the layout-independent fields (SIG, INDX,
// PATH, SREP, CERT and whichever of NONC/VER this layout carries) out of
// a decoded response message, without interpreting SREP or CERT — the
// caller picks the version to interpret them with (see client.go, which
// determines it from SREP.VER/top VER before decoding either).
func DecodeResponseEnvelope(m *wire.Message) (sig [64]byte, index uint32, path, srepRaw, certRaw, nonce []byte, topVer uint32, hasTopVer bool, err error) {
	sigRaw, err := m.Require(wire.SIG)
	if err != nil {
		return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, err)
	}
	if len(sigRaw) != 64 {
		return sig, 0, nil, nil, nil, nil, 0, false, newError(KindInvalidResponse, "SIG must be 64 bytes")
	}
	copy(sig[:], sigRaw)

	index, err = m.U32(wire.INDX)
	if err != nil {
		return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, err)
	}
	path, err = m.Require(wire.PATH)
	if err != nil {
		return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, err)
	}
	srepRaw, err = m.Require(wire.SREP)
	if err != nil {
		return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, err)
	}
	certRaw, err = m.Require(wire.CERT)
	if err != nil {
		return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, err)
	}
	if n, ok := m.Get(wire.NONC); ok {
		nonce = n
	}
	if ver, ok := m.Get(wire.VER); ok {
		v, verr := wire.Uint32(ver)
		if verr != nil {
			return sig, 0, nil, nil, nil, nil, 0, false, wrapError(KindInvalidResponse, verr)
		}
		topVer, hasTopVer = v, true
	}
	return sig, index, path, srepRaw, certRaw, nonce, topVer, hasTopVer, nil
}
