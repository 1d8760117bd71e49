package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// Keypair holds a secp256k1 keypair. The public key is stored in
// compressed (33 byte) form.
type Keypair struct {
	PrivateKey []byte
	PublicKey  []byte
}

// GenerateKeypair creates a new random secp256k1 keypair.
func GenerateKeypair() (*Keypair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &Keypair{
		PrivateKey: priv.Serialize(),
		PublicKey:  priv.PubKey().SerializeCompressed(),
	}, nil
}

// DeriveKeypair derives a deterministic secp256k1 keypair from a seed.
// The private scalar is Sha512Half(seed), retried with an incrementing
// suffix in the (astronomically unlikely) case the candidate is not a
// valid scalar.
func DeriveKeypair(seed []byte) (*Keypair, error) {
	candidate := seed
	for i := 0; i < 64; i++ {
		digest := Sha512Half(candidate)
		var scalar secp256k1.ModNScalar
		overflow := scalar.SetBytes(&digest)
		if overflow == 0 && !scalar.IsZero() {
			priv := secp256k1.NewPrivateKey(&scalar)
			return &Keypair{
				PrivateKey: priv.Serialize(),
				PublicKey:  priv.PubKey().SerializeCompressed(),
			}, nil
		}
		candidate = append(append([]byte{}, candidate...), byte(i))
	}
	return nil, ErrInvalidPrivateKey
}

// Sign signs a 32-byte digest and returns a DER-encoded signature.
func Sign(privateKey []byte, digest [32]byte) ([]byte, error) {
	if len(privateKey) != 32 {
		return nil, ErrInvalidPrivateKey
	}
	priv := secp256k1.PrivKeyFromBytes(privateKey)
	sig := ecdsa.Sign(priv, digest[:])
	return sig.Serialize(), nil
}

// Verify checks a DER-encoded signature over a 32-byte digest against a
// compressed public key.
func Verify(publicKey []byte, digest [32]byte, signature []byte) error {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return ErrInvalidPublicKey
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !sig.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}

// CalcAccountID computes the 160-bit account ID for a public key as
// RIPEMD160(SHA256(publicKey)).
func CalcAccountID(publicKey []byte) [AccountIDSize]byte {
	sha := sha256.Sum256(publicKey)
	r := ripemd160.New()
	r.Write(sha[:])
	var result [AccountIDSize]byte
	copy(result[:], r.Sum(nil))
	return result
}

// RandomBytes fills and returns a buffer of n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
