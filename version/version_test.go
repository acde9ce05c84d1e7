package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChooseVersion(t *testing.T) {
	require.Equal(t, Google, ChooseVersion(nil))
	require.Equal(t, Google, ChooseVersion([]uint32{}))
	require.Equal(t, Fiducial, ChooseVersion([]uint32{uint32(IETF1), uint32(Fiducial)}))
	require.Equal(t, Fiducial, ChooseVersion([]uint32{0x99999999}))
	require.Equal(t, Version(1), ChooseVersion([]uint32{1, uint32(IETF1)}))
	require.Equal(t, Version(IETFb), ChooseVersion([]uint32{uint32(IETF8), uint32(IETFb)}))
}

func TestNonceLength(t *testing.T) {
	require.Equal(t, 64, NonceLength(Google))
	require.Equal(t, 64, NonceLength(IETF1))
	require.Equal(t, 64, NonceLength(IETF4))
	require.Equal(t, 32, NonceLength(IETF6))
	require.Equal(t, 32, NonceLength(Fiducial))
}

func TestPadTag(t *testing.T) {
	require.Equal(t, `PAD\xff`, PadTag(Google).String())
	require.Equal(t, "ZZZZ", PadTag(Fiducial).String())
	require.Equal(t, "ZZZZ", PadTag(IETF8).String())
	require.Equal(t, `PAD\x00`, PadTag(IETF1).String())
}

func TestMerkleOptions(t *testing.T) {
	require.Equal(t, 64, MerkleOptions(Google).HashSize)
	require.Equal(t, 32, MerkleOptions(Fiducial).HashSize)
	require.Equal(t, 32, MerkleOptions(IETF1).HashSize)
}

func TestCanBatch(t *testing.T) {
	require.False(t, CanBatch(IETF1))
	require.False(t, CanBatch(IETF2))
	require.True(t, CanBatch(Google))
	require.True(t, CanBatch(Fiducial))
}

func TestValidateVers(t *testing.T) {
	require.NoError(t, ValidateVers(Fiducial, []uint32{1, 2, 3}))
	require.Error(t, ValidateVers(Fiducial, nil))
	require.Error(t, ValidateVers(Fiducial, []uint32{3, 2, 1}))
	require.Error(t, ValidateVers(Fiducial, []uint32{1, 1}))
	// Earlier versions impose no constraint.
	require.NoError(t, ValidateVers(Google, nil))
}

func TestValidateType(t *testing.T) {
	require.NoError(t, ValidateType(Fiducial, []byte{0, 0, 0, 0}))
	require.Error(t, ValidateType(Fiducial, []byte{1, 0, 0, 0}))
	require.NoError(t, ValidateType(Google, []byte{1, 2, 3, 4}))
}

func TestValidateNonce(t *testing.T) {
	require.NoError(t, ValidateNonce(Fiducial, make([]byte, 32)))
	require.Error(t, ValidateNonce(Fiducial, make([]byte, 64)))
	require.NoError(t, ValidateNonce(Google, make([]byte, 64)))
}
