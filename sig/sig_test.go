package sig

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// RFC 8032 Ed25519 test vector #1.
func TestRFC8032Vector1(t *testing.T) {
	seed := hexBytes(t, "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	wantSig := hexBytes(t, "e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b")

	sk, err := NewPrivateKeyFromSeed(seed[:32])
	require.NoError(t, err)

	out := SignWithContext("", nil, sk)
	require.Equal(t, wantSig, out[:])
}

func TestSignVerifyRoundTrip(t *testing.T) {
	pk, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg := []byte("the quick brown fox")
	s := SignWithContext(ContextSREP, msg, sk)
	require.True(t, VerifyWithContext(ContextSREP, msg, pk, s))
}

func TestSignDeterministic(t *testing.T) {
	pk, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	_ = pk
	msg := []byte("deterministic message")
	a := SignWithContext(ContextDELE, msg, sk)
	b := SignWithContext(ContextDELE, msg, sk)
	require.Equal(t, a, b)
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	pk, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	msg := []byte("message")
	s := SignWithContext(ContextSREP, msg, sk)
	require.False(t, VerifyWithContext(ContextSREP, []byte("mussage"), pk, s))
}

func TestVerifyRejectsWrongContext(t *testing.T) {
	pk, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	msg := []byte("message")
	s := SignWithContext(ContextDELE, msg, sk)
	require.False(t, VerifyWithContext(ContextDELELegacy, msg, pk, s))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	pk1, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk2, _, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.NotEqual(t, pk1, pk2)

	msg := []byte("message")
	s := SignWithContext(ContextSREP, msg, sk)
	require.False(t, VerifyWithContext(ContextSREP, msg, pk2, s))
}

func TestVerifyRejectsFlippedSignatureBit(t *testing.T) {
	pk, sk, err := GenerateKey(rand.Reader)
	require.NoError(t, err)
	msg := []byte("message")
	s := SignWithContext(ContextSREP, msg, sk)
	s[0] ^= 1
	require.False(t, VerifyWithContext(ContextSREP, msg, pk, s))
}

func TestNewPublicKeyRejectsBadLength(t *testing.T) {
	_, err := NewPublicKey(bytes.Repeat([]byte{1}, 31))
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}
