package tx

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/crypto"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidDestination     = errors.New("invalid destination")
	ErrInvalidAccount         = errors.New("invalid account")
	ErrInvalidSequence        = errors.New("invalid sequence")
)

// signingPrefix namespaces the signing digest so a signature over a
// transaction can never be replayed as a signature over anything else.
var signingPrefix = []byte("MTX\x00")

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks if the transaction is valid
	Validate() error

	// Flatten returns a flat map of all transaction fields for serialization
	Flatten() (map[string]any, error)
}

// Appliable is implemented by transaction types that can apply themselves
// to ledger state. This replaces a central switch statement in the engine.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common contains fields common to all transaction types
type Common struct {
	Account         string `json:"Account"`
	TransactionType string `json:"TransactionType"`

	// Fee in native units, destroyed on application
	Fee uint64 `json:"Fee"`

	// Sequence is the account's next sequence number
	Sequence uint32 `json:"Sequence"`

	// SigningPubKey is the hex-encoded compressed secp256k1 public key
	SigningPubKey string `json:"SigningPubKey,omitempty"`

	// TxnSignature is the hex-encoded DER signature over the signing digest
	TxnSignature string `json:"TxnSignature,omitempty"`
}

// Validate validates the common fields
func (c *Common) Validate() error {
	if c.Account == "" {
		return errors.New("Account is required")
	}
	if c.TransactionType == "" {
		return errors.New("TransactionType is required")
	}
	return nil
}

// ToMap converts common fields to a map
func (c *Common) ToMap() map[string]any {
	m := map[string]any{
		"Account":         c.Account,
		"TransactionType": c.TransactionType,
		"Fee":             c.Fee,
		"Sequence":        c.Sequence,
	}
	if c.SigningPubKey != "" {
		m["SigningPubKey"] = c.SigningPubKey
	}
	if c.TxnSignature != "" {
		m["TxnSignature"] = c.TxnSignature
	}
	return m
}

// BaseTx provides a base implementation for transactions
type BaseTx struct {
	Common
	txType Type
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common transaction fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the base transaction
func (b *BaseTx) Validate() error {
	return b.Common.Validate()
}

// Flatten returns a flat map of transaction fields
func (b *BaseTx) Flatten() (map[string]any, error) {
	return b.Common.ToMap(), nil
}

// NewBaseTx creates a new base transaction
func NewBaseTx(txType Type, account string) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         account,
			TransactionType: txType.String(),
		},
		txType: txType,
	}
}

// SigningDigest returns the 256-bit digest a transaction is signed over:
// the prefixed canonical encoding of every field except TxnSignature.
func SigningDigest(t Transaction) ([32]byte, error) {
	flat, err := t.Flatten()
	if err != nil {
		return [32]byte{}, err
	}
	delete(flat, "TxnSignature")
	encoded, err := sle.Encode(flat)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to encode transaction for signing: %w", err)
	}
	return crypto.Sha512Half(signingPrefix, encoded), nil
}

// Hash returns the transaction's identifying hash, computed over the
// fully signed form.
func Hash(t Transaction) ([32]byte, error) {
	flat, err := t.Flatten()
	if err != nil {
		return [32]byte{}, err
	}
	encoded, err := sle.Encode(flat)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return crypto.Sha512Half([]byte("TXN\x00"), encoded), nil
}

// Sign computes the signing digest, signs it with the given key, and
// fills in SigningPubKey and TxnSignature.
func Sign(t Transaction, kp *crypto.Keypair) error {
	common := t.GetCommon()
	common.SigningPubKey = hex.EncodeToString(kp.PublicKey)
	common.TxnSignature = ""
	digest, err := SigningDigest(t)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(kp.PrivateKey, digest)
	if err != nil {
		return err
	}
	common.TxnSignature = hex.EncodeToString(sig)
	return nil
}

// VerifySignature checks that TxnSignature is a valid signature over the
// signing digest by SigningPubKey, and that SigningPubKey derives the
// transaction's Account.
func VerifySignature(t Transaction) error {
	common := t.GetCommon()
	if common.SigningPubKey == "" || common.TxnSignature == "" {
		return errors.New("transaction is not signed")
	}
	pubKey, err := hex.DecodeString(common.SigningPubKey)
	if err != nil {
		return fmt.Errorf("invalid signing public key: %w", err)
	}
	sig, err := hex.DecodeString(common.TxnSignature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	digest, err := SigningDigest(t)
	if err != nil {
		return err
	}
	if err := crypto.Verify(pubKey, digest, sig); err != nil {
		return err
	}
	accountID := crypto.CalcAccountID(pubKey)
	if sle.EncodeAccountID(accountID) != common.Account {
		return errors.New("signing key does not match account")
	}
	return nil
}
