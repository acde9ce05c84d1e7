package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	msg, err := Encode([]Field{{Tag: makeTag("NONC"), Value: []byte("0123456701234567")}})
	require.NoError(t, err)

	packet := EncodePacket(msg)
	require.True(t, len(packet) >= 12)

	got, err := DecodePacket(packet, 0)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestPacketBareTLVFallback(t *testing.T) {
	msg, err := Encode([]Field{{Tag: makeTag("NONC"), Value: []byte("0123456701234567")}})
	require.NoError(t, err)

	got, err := DecodePacket(msg, 0)
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestPacketRejectsBadMagicLength(t *testing.T) {
	_, err := DecodePacket([]byte("ROUGHTIM"), 0)
	require.Error(t, err)
}

func TestPacketRejectsLengthMismatch(t *testing.T) {
	packet := EncodePacket(make([]byte, 16))
	packet = append(packet, 0, 0, 0, 0) // declared length no longer matches actual size
	_, err := DecodePacket(packet, 0)
	require.ErrorIs(t, err, ErrBadFraming)
}

func TestPacketEnforcesMinSize(t *testing.T) {
	packet := EncodePacket(make([]byte, 16))
	_, err := DecodePacket(packet, 1024)
	require.ErrorIs(t, err, ErrTooSmall)
}
