package roughtime

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// Scenario 2, spec.md §8: a batch of 128 requests at the fiducial
// version all validate, and each validated midpoint is within a second
// of the batch's midpoint.
func TestBatchRespondSingleVersion(t *testing.T) {
	longPub, _, certs := mintForTest(t)
	const n = 128

	var packets [][]byte
	var nonces [][]byte
	for i := 0; i < n; i++ {
		packet, _, nonce, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.Fiducial)}})
		require.NoError(t, err)
		packets = append(packets, packet)
		nonces = append(nonces, nonce)
	}

	now := time.Now()
	responses, err := RespondBatch(packets, DefaultMinSizeBytes, certs, now, DefaultRadius)
	require.NoError(t, err)
	require.Len(t, responses, n)

	for i := range packets {
		require.NotNil(t, responses[i])
		validated, err := ValidateResponse(Exchange{
			RequestNonce:   nonces[i],
			RequestBytes:   packets[i],
			Response:       responses[i],
			ServerLongterm: longPub,
			ObservedAt:     now,
		})
		require.NoError(t, err)
		require.WithinDuration(t, now, validated.Midpoint, time.Second)
	}
}

// Scenario 3, spec.md §8: a mixed batch across several versions
// preserves input order and every position validates.
func TestBatchRespondMixedVersions(t *testing.T) {
	longPub, _, certs := mintForTest(t)
	vers := []version.Version{version.Google, version.IETF8, version.IETFb, version.Fiducial}
	const n = 128

	var packets [][]byte
	var nonces [][]byte
	for i := 0; i < n; i++ {
		v := vers[i%len(vers)]
		packet, _, nonce, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(v)}})
		require.NoError(t, err)
		packets = append(packets, packet)
		nonces = append(nonces, nonce)
	}

	now := time.Now()
	responses, err := RespondBatch(packets, DefaultMinSizeBytes, certs, now, DefaultRadius)
	require.NoError(t, err)
	require.Len(t, responses, n)

	for i := range packets {
		require.NotNilf(t, responses[i], "position %d", i)
		_, err := ValidateResponse(Exchange{
			RequestNonce:   nonces[i],
			RequestBytes:   packets[i],
			Response:       responses[i],
			ServerLongterm: longPub,
			ObservedAt:     now,
		})
		require.NoErrorf(t, err, "position %d", i)
	}
}

// Scenario 4, spec.md §8: a malformed batch — two garbage entries, two
// entries at an unbatchable version, and two well-formed entries —
// produces nil only at the broken positions.
func TestBatchRespondMalformed(t *testing.T) {
	_, _, certs := mintForTest(t)

	good0, _, _, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.Fiducial)}})
	require.NoError(t, err)
	good3, _, _, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.Fiducial)}})
	require.NoError(t, err)
	unbatchable1, _, _, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.IETF1)}})
	require.NoError(t, err)
	unbatchable2, _, _, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.IETF2)}})
	require.NoError(t, err)

	garbage := make([]byte, 4)
	_, err = rand.Read(garbage)
	require.NoError(t, err)

	batch := [][]byte{
		good0,
		garbage,
		unbatchable1,
		good3,
		unbatchable2,
		garbage,
	}

	responses, err := RespondBatch(batch, 0, certs, time.Now(), DefaultRadius)
	require.NoError(t, err)
	require.Len(t, responses, len(batch))

	require.NotNil(t, responses[0])
	require.NotNil(t, responses[3])
	require.Nil(t, responses[1])
	require.Nil(t, responses[2])
	require.Nil(t, responses[4])
	require.Nil(t, responses[5])
}

// Scenario 5, spec.md §8: tampering with a response's signed bytes, or
// the client's claimed long-term key, breaks validation with the
// expected error kind; an expired delegation is rejected separately.
func TestValidateResponseTamperDetection(t *testing.T) {
	longPub, longPrv, certs := mintForTest(t)

	packet, _, nonce, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(version.Fiducial)}})
	require.NoError(t, err)
	parsed, err := ParseRequest(packet, DefaultMinSizeBytes)
	require.NoError(t, err)

	now := time.Now()
	resp, err := RespondSingle(parsed, certs, now, DefaultRadius)
	require.NoError(t, err)

	baseExchange := Exchange{
		RequestNonce:   nonce,
		RequestBytes:   packet,
		Response:       resp,
		ServerLongterm: longPub,
		ObservedAt:     now,
	}

	// Sanity: untampered response validates.
	_, err = ValidateResponse(baseExchange)
	require.NoError(t, err)

	// Flip a byte deep inside the response bytes: CERT sorts after
	// PATH/SREP and before INDX in the top-level tag order, and within
	// CERT, DELE sorts after SIG and MAXT is DELE's last field, so the
	// fifth-from-last byte lands exactly on MAXT. That's disjoint from
	// ROOT/SREP, so the only reachable failure is BadDele.
	tampered := append([]byte(nil), resp...)
	tampered[len(tampered)-5] ^= 0xff
	ex := baseExchange
	ex.Response = tampered
	_, err = ValidateResponse(ex)
	require.ErrorIs(t, err, ErrBadDele)

	// Swap the server long-term key for an unrelated one: CERT no
	// longer verifies.
	otherPub, _, err := sig.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ex = baseExchange
	ex.ServerLongterm = otherPub
	_, err = ValidateResponse(ex)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadDele)

	// Expired delegation: mint with MaxT already in the past.
	expiredCerts, err := Mint(longPrv, -time.Minute, rand.Reader)
	require.NoError(t, err)
	expiredResp, err := RespondSingle(parsed, expiredCerts, now, DefaultRadius)
	require.NoError(t, err)
	ex = baseExchange
	ex.Response = expiredResp
	_, err = ValidateResponse(ex)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrExpiredDele)
}
