// Package sig wraps Ed25519 keygen, raw-key conversions and the
// context-prefixed sign/verify operations every Roughtime signature layer
// uses (CERT over DELE, SIG over SREP). It generalizes the teacher's
// inline `ed25519.Verify(pub, append(ctx, data...), sig)` calls
// (roughtime.go's Certificate.setTag / Response.setTag in the retrieval
// pack) into named entry points that avoid that throwaway append on the
// hot path.
package sig

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/ed25519"
)

// Signature contexts, spec.md §4.5. Each is literal US-ASCII with a
// terminating NUL.
const (
	ContextSREP       = "RoughTime v1 response signature\x00"
	ContextDELE       = "RoughTime v1 delegation signature\x00"
	ContextDELELegacy = "RoughTime v1 delegation signature--\x00"
)

var ErrInvalidKeyLength = errors.New("sig: invalid key length")

// PublicKey is a Roughtime Ed25519 public key.
type PublicKey [32]byte

// PrivateKey is a Roughtime Ed25519 private seed-derived key.
type PrivateKey [64]byte

// GenerateKey produces a fresh Ed25519 key pair using rnd, or the OS
// entropy source if rnd is nil. rnd must be safe for concurrent use if
// shared across callers; callers needing per-goroutine generation should
// pass a thread-local source.
func GenerateKey(rnd io.Reader) (PublicKey, PrivateKey, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	pub, prv, err := ed25519.GenerateKey(rnd)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	var pk PublicKey
	var sk PrivateKey
	copy(pk[:], pub)
	copy(sk[:], prv)
	return pk, sk, nil
}

// NewPublicKey validates and wraps a raw 32-byte Ed25519 public key.
func NewPublicKey(raw []byte) (PublicKey, error) {
	if len(raw) != 32 {
		return PublicKey{}, ErrInvalidKeyLength
	}
	var pk PublicKey
	copy(pk[:], raw)
	return pk, nil
}

// NewPrivateKeyFromSeed expands a raw 32-byte Ed25519 seed into a
// structured private key.
func NewPrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return PrivateKey{}, ErrInvalidKeyLength
	}
	var sk PrivateKey
	copy(sk[:], ed25519.NewKeyFromSeed(seed))
	return sk, nil
}

// Public derives the public key half of sk.
func (sk PrivateKey) Public() PublicKey {
	var pk PublicKey
	copy(pk[:], ed25519.PrivateKey(sk[:]).Public().(ed25519.PublicKey))
	return pk
}

// bufPool holds scratch buffers sized for the largest signed submessages
// (CERT's DELE, and the SREP bodies), so SignWithContext/VerifyWithContext
// avoid a fresh allocation on every call. crypto/ed25519's public API
// takes one contiguous message, so the context and the data still need to
// land in one buffer before the single Ed25519 computation; pooling that
// buffer is what keeps this off the allocator instead of building a new
// throwaway slice per call.
var bufPool = sync.Pool{
	New: func() any { return make([]byte, 0, 1024) },
}

func contextualize(ctx string, data []byte) (buf []byte, release func()) {
	b := bufPool.Get().([]byte)[:0]
	if need := len(ctx) + len(data); cap(b) < need {
		b = make([]byte, 0, need)
	}
	b = append(b, ctx...)
	b = append(b, data...)
	return b, func() { bufPool.Put(b[:0]) } //nolint:staticcheck // intentional pool reuse
}

// SignWithContext signs data under a context prefix using the Ed25519
// private key sk, per spec.md §4.5.
func SignWithContext(ctx string, data []byte, sk PrivateKey) [64]byte {
	buf, release := contextualize(ctx, data)
	defer release()
	sum := ed25519.Sign(ed25519.PrivateKey(sk[:]), buf)
	var out [64]byte
	copy(out[:], sum)
	return out
}

// VerifyWithContext verifies a signature produced by SignWithContext.
func VerifyWithContext(ctx string, data []byte, pk PublicKey, signature [64]byte) bool {
	buf, release := contextualize(ctx, data)
	defer release()
	return ed25519.Verify(ed25519.PublicKey(pk[:]), buf, signature[:])
}
