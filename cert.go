package roughtime

import (
	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// Certificate is a CERT record: a Delegation plus the long-term key's
// signature over it.
type Certificate struct {
	Signature     [64]byte
	Delegation    Delegation
	DelegationRaw []byte // byte-exact DELE bytes the signature covers
}

// MintCertificate builds and signs a CERT delegating to d.PublicKey for
// version v, using the server's long-term private key.
func MintCertificate(v version.Version, longtermPrv sig.PrivateKey, d Delegation) (Certificate, error) {
	raw, err := EncodeDelegation(v, d)
	if err != nil {
		return Certificate{}, err
	}
	s := sig.SignWithContext(version.DeleContext(v), raw, longtermPrv)
	return Certificate{Signature: s, Delegation: d, DelegationRaw: raw}, nil
}

// EncodeCertificate encodes c as a CERT tagged map.
func EncodeCertificate(c Certificate) ([]byte, error) {
	return wire.Encode([]wire.Field{
		{Tag: wire.SIG, Value: c.Signature[:]},
		{Tag: wire.DELE, Value: c.DelegationRaw},
	})
}

// DecodeCertificate decodes a CERT tagged map but does not verify it;
// callers must call VerifyCertificate with the claimed long-term key.
func DecodeCertificate(v version.Version, raw []byte) (Certificate, error) {
	m, err := wire.Decode(raw)
	if err != nil {
		return Certificate{}, wrapError(KindBadDele, err)
	}
	sigRaw, err := m.Require(wire.SIG)
	if err != nil {
		return Certificate{}, wrapError(KindBadDele, err)
	}
	if len(sigRaw) != 64 {
		return Certificate{}, newError(KindBadDele, "CERT.SIG must be 64 bytes")
	}
	deleRaw, err := m.Require(wire.DELE)
	if err != nil {
		return Certificate{}, wrapError(KindBadDele, err)
	}
	dele, err := DecodeDelegation(v, deleRaw)
	if err != nil {
		return Certificate{}, err
	}
	var c Certificate
	copy(c.Signature[:], sigRaw)
	c.Delegation = dele
	c.DelegationRaw = deleRaw
	return c, nil
}

// VerifyCertificate checks c's signature against the claimed long-term
// public key, under version v's delegation context.
func VerifyCertificate(v version.Version, longtermPub sig.PublicKey, c Certificate) bool {
	return sig.VerifyWithContext(version.DeleContext(v), c.DelegationRaw, longtermPub, c.Signature)
}
