package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha512Half(t *testing.T) {
	a := Sha512Half([]byte("marketd"))
	b := Sha512Half([]byte("marketd"))
	require.Equal(t, a, b, "hash must be deterministic")

	c := Sha512Half([]byte("market"), []byte("d"))
	require.Equal(t, a, c, "hash must be over the concatenation of inputs")

	d := Sha512Half([]byte("marketD"))
	require.NotEqual(t, a, d)
}

func TestDeriveKeypairDeterministic(t *testing.T) {
	kp1, err := DeriveKeypair([]byte("alice"))
	require.NoError(t, err)
	kp2, err := DeriveKeypair([]byte("alice"))
	require.NoError(t, err)
	require.Equal(t, kp1.PrivateKey, kp2.PrivateKey)
	require.Equal(t, kp1.PublicKey, kp2.PublicKey)
	require.Len(t, kp1.PublicKey, 33, "public key must be compressed")

	kp3, err := DeriveKeypair([]byte("bob"))
	require.NoError(t, err)
	require.NotEqual(t, kp1.PublicKey, kp3.PublicKey)
}

func TestSignVerify(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)

	digest := Sha512Half([]byte("a transaction"))
	sig, err := Sign(kp.PrivateKey, digest)
	require.NoError(t, err)
	require.NoError(t, Verify(kp.PublicKey, digest, sig))

	// Wrong digest must not verify.
	other := Sha512Half([]byte("another transaction"))
	require.Error(t, Verify(kp.PublicKey, other, sig))

	// Wrong key must not verify.
	kp2, err := GenerateKeypair()
	require.NoError(t, err)
	require.Error(t, Verify(kp2.PublicKey, digest, sig))

	// Garbage signature is rejected.
	require.Error(t, Verify(kp.PublicKey, digest, []byte{0x01, 0x02}))
}

func TestCalcAccountID(t *testing.T) {
	kp, err := DeriveKeypair([]byte("carol"))
	require.NoError(t, err)

	id1 := CalcAccountID(kp.PublicKey)
	id2 := CalcAccountID(kp.PublicKey)
	require.Equal(t, id1, id2)
	require.Len(t, id1[:], AccountIDSize)

	kp2, err := DeriveKeypair([]byte("dave"))
	require.NoError(t, err)
	require.NotEqual(t, id1, CalcAccountID(kp2.PublicKey))
}
