package roughtime

import (
	"time"

	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// DefaultRadius is the policy radius spec.md §4.10 and §1 describe as a
// fixed policy constant; refinement is left to the deployer.
const DefaultRadius = 10 * time.Second

// SignedResponse is the decoded SREP payload, spec.md §3/§4.10. Nonce,
// SrepVersion and Vers are only populated for the version ranges that
// carry them.
type SignedResponse struct {
	Root        []byte
	Midpoint    time.Time
	Radius      time.Duration
	Nonce       []byte           // only v1, v2
	SrepVersion version.Version  // only v >= Fiducial
	Vers        []uint32         // only v >= Fiducial
}

// BuildSREP assembles the SREP tagged map for v, per spec.md §4.10's
// per-version layout table. nonce is only used (and required) for
// versions 0x80000001/0x80000002, which sign the nonce inside SREP
// because they cannot batch. vers is only used for v >= Fiducial.
func BuildSREP(v version.Version, root []byte, midpoint time.Time, radius time.Duration, nonce []byte, vers []uint32) ([]byte, error) {
	if !supportedForSrep(v) {
		return nil, newError(KindInvalidResponse, "unsupported version for SREP")
	}
	if radius <= 0 {
		return nil, newError(KindInvalidResponse, "RADI must be positive")
	}

	fields := []wire.Field{
		{Tag: wire.ROOT, Value: root},
		{Tag: wire.MIDP, Value: wire.PutUint64(encodeTimestamp(v, midpoint))},
		{Tag: wire.RADI, Value: wire.PutUint32(encodeRadius(v, radius))},
	}
	switch {
	case v == version.IETF1 || v == version.IETF2:
		fields = append(fields, wire.Field{Tag: wire.NONC, Value: nonce})
	case v >= version.Fiducial:
		fields = append(fields,
			wire.Field{Tag: wire.VER, Value: wire.PutUint32(uint32(v))},
			wire.Field{Tag: wire.VERS, Value: wire.PutUint32List(vers)},
		)
	}
	return wire.Encode(fields)
}

func supportedForSrep(v version.Version) bool {
	for _, s := range version.Supported {
		if s == v {
			return true
		}
	}
	return false
}

// DecodeSREP parses a raw SREP submessage, selecting fields by v as
// BuildSREP writes them.
func DecodeSREP(v version.Version, raw []byte) (SignedResponse, error) {
	m, err := wire.Decode(raw)
	if err != nil {
		return SignedResponse{}, wrapError(KindBadSrep, err)
	}
	root, err := m.Require(wire.ROOT)
	if err != nil {
		return SignedResponse{}, wrapError(KindBadSrep, err)
	}
	midpRaw, err := m.U64(wire.MIDP)
	if err != nil {
		return SignedResponse{}, wrapError(KindBadSrep, err)
	}
	radiRaw, err := m.U32(wire.RADI)
	if err != nil {
		return SignedResponse{}, wrapError(KindBadSrep, err)
	}
	sr := SignedResponse{
		Root:     root,
		Midpoint: decodeTimestamp(v, midpRaw),
		Radius:   decodeRadius(v, radiRaw),
	}
	if nonce, ok := m.Get(wire.NONC); ok {
		sr.Nonce = nonce
	}
	if verRaw, ok := m.Get(wire.VER); ok {
		ver, err := wire.Uint32(verRaw)
		if err != nil {
			return SignedResponse{}, wrapError(KindBadSrep, err)
		}
		sr.SrepVersion = version.Version(ver)
	}
	if versRaw, err := m.U32List(wire.VERS); err == nil {
		sr.Vers = versRaw
	}
	return sr, nil
}
