package roughtime

import (
	"time"

	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// Delegation is a DELE record: the online key a CERT delegates signing
// authority to, and the validity window it is delegated for.
type Delegation struct {
	PublicKey sig.PublicKey
	Min, Max  time.Time
}

// EncodeDelegation encodes d as a DELE tagged map for version v.
func EncodeDelegation(v version.Version, d Delegation) ([]byte, error) {
	return wire.Encode([]wire.Field{
		{Tag: wire.PUBK, Value: d.PublicKey[:]},
		{Tag: wire.MINT, Value: wire.PutUint64(encodeTimestamp(v, d.Min))},
		{Tag: wire.MAXT, Value: wire.PutUint64(encodeTimestamp(v, d.Max))},
	})
}

// DecodeDelegation decodes a DELE tagged map for version v.
func DecodeDelegation(v version.Version, raw []byte) (Delegation, error) {
	m, err := wire.Decode(raw)
	if err != nil {
		return Delegation{}, wrapError(KindBadDele, err)
	}
	pubkRaw, err := m.Require(wire.PUBK)
	if err != nil {
		return Delegation{}, wrapError(KindBadDele, err)
	}
	pk, err := sig.NewPublicKey(pubkRaw)
	if err != nil {
		return Delegation{}, wrapError(KindBadDele, err)
	}
	mint, err := m.U64(wire.MINT)
	if err != nil {
		return Delegation{}, wrapError(KindBadDele, err)
	}
	maxt, err := m.U64(wire.MAXT)
	if err != nil {
		return Delegation{}, wrapError(KindBadDele, err)
	}
	return Delegation{
		PublicKey: pk,
		Min:       decodeTimestamp(v, mint),
		Max:       decodeTimestamp(v, maxt),
	}, nil
}
