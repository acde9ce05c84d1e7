package roughtime

import (
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

func mintForTest(t *testing.T) (sig.PublicKey, sig.PrivateKey, MintedCerts) {
	t.Helper()
	longPub, longPrv, err := sig.GenerateKey(rand.Reader)
	require.NoError(t, err)
	certs, err := Mint(longPrv, DefaultValidity, rand.Reader)
	require.NoError(t, err)
	return longPub, longPrv, certs
}

// Scenario 1, spec.md §8: for every supported version, a single
// request/respond/validate round trip succeeds and the validated
// midpoint falls within the delegation window.
func TestEndToEndSingleAllVersions(t *testing.T) {
	longPub, _, certs := mintForTest(t)

	for _, v := range version.Supported {
		v := v
		t.Run(fmt.Sprintf("%#x", uint32(v)), func(t *testing.T) {
			packet, chosen, nonce, err := BuildRequest(RequestOptions{Vers: []uint32{uint32(v)}})
			require.NoError(t, err)
			require.Equal(t, v, chosen)

			parsed, err := ParseRequest(packet, DefaultMinSizeBytes)
			require.NoError(t, err)
			require.Equal(t, v, parsed.Version)

			now := time.Now()
			resp, err := RespondSingle(parsed, certs, now, DefaultRadius)
			require.NoError(t, err)

			validated, err := ValidateResponse(Exchange{
				RequestNonce:   nonce,
				RequestBytes:   packet,
				Response:       resp,
				ServerLongterm: longPub,
				ObservedAt:     now,
			})
			require.NoError(t, err)
			require.False(t, validated.Midpoint.Before(validated.Min))
			require.False(t, validated.Midpoint.After(validated.Max))
		})
	}
}
