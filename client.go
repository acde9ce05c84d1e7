package roughtime

import (
	"bytes"
	"time"

	"github.com/Sturdy-Statistics/roughtime-protocol/internal/wire"
	"github.com/Sturdy-Statistics/roughtime-protocol/merkle"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// Exchange is the client-side record of one request/response round
// trip, spec.md §3: the bytes sent, the bytes received, the server
// long-term public key the caller believes it is talking to, and the
// wall-clock time the response was observed at.
type Exchange struct {
	RequestNonce   []byte
	RequestBytes   []byte
	Response       []byte
	ServerLongterm sig.PublicKey
	ObservedAt     time.Time
}

// ValidatedTime is the result of a successful ValidateResponse: the
// server's claimed time, its stated uncertainty radius, and the
// delegation window it was signed under.
type ValidatedTime struct {
	Midpoint time.Time
	Radius   time.Duration
	Min, Max time.Time
}

// ValidateResponse runs the nine-step client validation pipeline of
// spec.md §4.13 against ex, returning the validated time or a
// distinctly-kinded *Error (BadNonce, BadRoot, BadDele, BadSrep,
// ExpiredDele).
func ValidateResponse(ex Exchange) (ValidatedTime, error) {
	// 1. Parse response packet (bare-TLV fallback allowed).
	msg, err := wire.DecodePacket(ex.Response, 0)
	if err != nil {
		return ValidatedTime{}, wrapError(KindInvalidResponse, err)
	}
	m, err := wire.Decode(msg)
	if err != nil {
		return ValidatedTime{}, wrapError(KindInvalidResponse, err)
	}
	signature, index, path, srepRaw, certRaw, topNonce, topVer, hasTopVer, err := DecodeResponseEnvelope(m)
	if err != nil {
		return ValidatedTime{}, err
	}

	// 2. Extract raw SREP and DELE bytes (byte-exact, not re-encoded).
	srepMsg, err := wire.Decode(srepRaw)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadSrep, err)
	}
	certMsg, err := wire.Decode(certRaw)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadDele, err)
	}
	deleRaw, err := certMsg.Require(wire.DELE)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadDele, err)
	}

	// 3. Determine version: prefer SREP.VER (>= Fiducial), else top VER,
	// else Google.
	v := version.Google
	if verRaw, ok := srepMsg.Get(wire.VER); ok {
		ver, err := wire.Uint32(verRaw)
		if err != nil {
			return ValidatedTime{}, wrapError(KindBadSrep, err)
		}
		v = version.Version(ver)
	} else if hasTopVer {
		v = version.Version(topVer)
	}

	// 4. Extract returned nonce: prefer top-level NONC, else SREP.NONC.
	returnedNonce := topNonce
	if returnedNonce == nil {
		if n, ok := srepMsg.Get(wire.NONC); ok {
			returnedNonce = n
		}
	}
	// 5. If present, it must equal the original request nonce.
	if returnedNonce != nil && !bytes.Equal(returnedNonce, ex.RequestNonce) {
		return ValidatedTime{}, newErrorBytes(KindBadNonce, "returned nonce does not match request", returnedNonce)
	}

	// 6. Reconstruct Merkle root from (INDX, PATH, leaf_data); compare
	// to SREP.ROOT.
	root, err := srepMsg.Require(wire.ROOT)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadSrep, err)
	}
	leafData := version.MerkleLeafData(v, ex.RequestNonce, ex.RequestBytes)
	opts := version.MerkleOptions(v)
	ok, _, err := merkle.ValidProof(merkle.Proof{
		Root:     root,
		LeafData: leafData,
		Index:    int(index),
		Path:     path,
	}, opts)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadRoot, err)
	}
	if !ok {
		return ValidatedTime{}, newErrorBytes(KindBadRoot, "reconstructed root does not match SREP.ROOT", root)
	}

	// 7. Verify CERT: verify_with_context(dele_context(v), DELE_bytes,
	// server_LT_pub, CERT.SIG).
	cert, err := DecodeCertificate(v, certRaw)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadDele, err)
	}
	if !VerifyCertificate(v, ex.ServerLongterm, cert) {
		return ValidatedTime{}, newErrorBytes(KindBadDele, "CERT signature does not verify", deleRaw)
	}

	// 8. Verify SREP: derive online public key from DELE.PUBK; verify
	// with ctx_srep.
	if !sig.VerifyWithContext(sig.ContextSREP, srepRaw, cert.Delegation.PublicKey, signature) {
		return ValidatedTime{}, newErrorBytes(KindBadSrep, "SREP signature does not verify", srepRaw)
	}

	// 9. Time check: MINT <= MIDP <= MAXT.
	srep, err := DecodeSREP(v, srepRaw)
	if err != nil {
		return ValidatedTime{}, wrapError(KindBadSrep, err)
	}
	if srep.Midpoint.Before(cert.Delegation.Min) || srep.Midpoint.After(cert.Delegation.Max) {
		return ValidatedTime{}, newError(KindExpiredDele, "MIDP outside delegation's [MINT, MAXT] window")
	}

	return ValidatedTime{
		Midpoint: srep.Midpoint,
		Radius:   srep.Radius,
		Min:      cert.Delegation.Min,
		Max:      cert.Delegation.Max,
	}, nil
}
