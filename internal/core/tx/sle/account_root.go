package sle

import (
	"errors"

	"github.com/openxm/marketd/internal/codec/addresscodec"
)

// Account root flag bits. The two marketplace flags are the engine-side
// approval tier: they record that the account has confirmed its ledger
// delegation to the marketplace, and are checked before the ledger-level
// grant itself.
const (
	LsfMarketAssetApproved   uint32 = 0x00010000
	LsfMarketPaymentApproved uint32 = 0x00020000
)

// AccountRoot is the root state entry for an account: native coin
// balance, transaction sequence, and flags.
type AccountRoot struct {
	Account  string `codec:"Account" json:"Account"`
	Balance  uint64 `codec:"Balance" json:"Balance"`
	Sequence uint32 `codec:"Sequence" json:"Sequence"`
	Flags    uint32 `codec:"Flags" json:"Flags"`
}

// SerializeAccountRoot encodes an account root for storage.
func SerializeAccountRoot(a *AccountRoot) ([]byte, error) {
	return Encode(a)
}

// ParseAccountRoot decodes an account root entry.
func ParseAccountRoot(data []byte) (*AccountRoot, error) {
	var a AccountRoot
	if err := Decode(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ErrBadAddress is returned when an account address fails to decode.
var ErrBadAddress = errors.New("bad account address")

// DecodeAccountID decodes a classic address into its raw 20-byte ID.
func DecodeAccountID(address string) ([20]byte, error) {
	id, err := addresscodec.Decode(address)
	if err != nil {
		return [20]byte{}, ErrBadAddress
	}
	return id, nil
}

// EncodeAccountID encodes a raw 20-byte ID as a classic address.
func EncodeAccountID(accountID [20]byte) string {
	return addresscodec.Encode(accountID)
}
