// Package testing provides a ledger environment for marketplace
// transaction tests.
package testing

import (
	"crypto/sha512"

	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/crypto"
)

// Account is a test account with a deterministic keypair. The same name
// always produces the same account, keeping tests reproducible.
type Account struct {
	// Name is a human-readable identifier for the account.
	Name string

	// Address is the account's classic address.
	Address string

	// ID is the 20-byte account ID derived from the public key.
	ID [20]byte

	// Keypair holds the signing keys.
	Keypair *crypto.Keypair

	// Sequence is the next transaction sequence for the account.
	Sequence uint32
}

// NewAccount derives a test account from a name.
func NewAccount(name string) *Account {
	seed := sha512.Sum512([]byte(name))
	kp, err := crypto.DeriveKeypair(seed[:16])
	if err != nil {
		panic("failed to derive test keypair for " + name + ": " + err.Error())
	}
	id := crypto.CalcAccountID(kp.PublicKey)
	return &Account{
		Name:     name,
		Address:  sle.EncodeAccountID(id),
		ID:       id,
		Keypair:  kp,
		Sequence: 1,
	}
}
