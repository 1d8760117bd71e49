package addresscodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var id [AccountIDLength]byte
	for i := range id {
		id[i] = byte(i * 7)
	}

	addr := Encode(id)
	require.NotEmpty(t, addr)

	decoded, err := Decode(addr)
	require.NoError(t, err)
	require.Equal(t, id, decoded)
}

func TestEncodeDeterministic(t *testing.T) {
	var id [AccountIDLength]byte
	id[0] = 0xAB
	id[19] = 0xCD
	require.Equal(t, Encode(id), Encode(id))
}

func TestZeroAccountID(t *testing.T) {
	// The zero account ID must survive the round trip; leading zero
	// bytes are the classic base58 edge case.
	var zero [AccountIDLength]byte
	addr := Encode(zero)
	decoded, err := Decode(addr)
	require.NoError(t, err)
	require.Equal(t, zero, decoded)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	var id [AccountIDLength]byte
	id[3] = 0x42
	addr := Encode(id)

	// Flip one character; the checksum must catch it.
	corrupted := []byte(addr)
	if corrupted[len(corrupted)-1] == '1' {
		corrupted[len(corrupted)-1] = '2'
	} else {
		corrupted[len(corrupted)-1] = '1'
	}
	_, err := Decode(string(corrupted))
	require.Error(t, err)

	_, err = Decode("")
	require.Error(t, err)

	_, err = Decode("not-an-address-0OIl")
	require.Error(t, err)

	_, err = Decode(addr[:len(addr)-2])
	require.Error(t, err)
}

func TestIsValid(t *testing.T) {
	var id [AccountIDLength]byte
	id[7] = 0x99
	require.True(t, IsValid(Encode(id)))
	require.False(t, IsValid("Mnonsense"))
}
