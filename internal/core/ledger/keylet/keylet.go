// Package keylet derives the 256-bit state map keys for ledger entries.
// Each entry kind has its own namespace byte so entries of different
// kinds can never collide.
package keylet

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/openxm/marketd/internal/core/ledger/entry"
	"github.com/openxm/marketd/internal/crypto"
)

// Space identifiers for keylet generation.
const (
	spaceAccount     uint16 = 'a' // Account root
	spaceAssetBal    uint16 = 'b' // Asset ledger balance
	spaceAssetAppr   uint16 = 'r' // Asset ledger operator approval
	spacePaymentBal  uint16 = 'y' // Payment ledger balance
	spaceAllowance   uint16 = 'w' // Payment ledger allowance
	spaceListing     uint16 = 'L' // Marketplace listing
	spaceOffer       uint16 = 'o' // Marketplace offer
	spaceMarketState uint16 = 'm' // Marketplace singleton
)

// Keylet is an addressable location in the ledger state: an entry type
// plus a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// Hex formats a state key the way it appears in metadata and RPC
// responses: uppercase hex.
func Hex(key [32]byte) string {
	return strings.ToUpper(hex.EncodeToString(key[:]))
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// Account returns the keylet for an account root entry.
func Account(accountID [20]byte) Keylet {
	return Keylet{
		Type: entry.TypeAccountRoot,
		Key:  indexHash(spaceAccount, accountID[:]),
	}
}

// AssetBalance returns the keylet for an (owner, assetID) balance on the
// asset ledger.
func AssetBalance(owner [20]byte, assetID uint64) Keylet {
	assetBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(assetBytes, assetID)
	return Keylet{
		Type: entry.TypeAssetBalance,
		Key:  indexHash(spaceAssetBal, owner[:], assetBytes),
	}
}

// AssetApproval returns the keylet for an (owner, operator) delegation on
// the asset ledger.
func AssetApproval(owner, operator [20]byte) Keylet {
	return Keylet{
		Type: entry.TypeAssetApproval,
		Key:  indexHash(spaceAssetAppr, owner[:], operator[:]),
	}
}

// PaymentBalance returns the keylet for an owner's balance on the payment
// ledger.
func PaymentBalance(owner [20]byte) Keylet {
	return Keylet{
		Type: entry.TypePaymentBalance,
		Key:  indexHash(spacePaymentBal, owner[:]),
	}
}

// PaymentAllowance returns the keylet for an (owner, spender) allowance on
// the payment ledger.
func PaymentAllowance(owner, spender [20]byte) Keylet {
	return Keylet{
		Type: entry.TypePaymentAllowance,
		Key:  indexHash(spaceAllowance, owner[:], spender[:]),
	}
}

// Listing returns the keylet for a marketplace listing.
func Listing(listingID uint64) Keylet {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, listingID)
	return Keylet{
		Type: entry.TypeListing,
		Key:  indexHash(spaceListing, idBytes),
	}
}

// Offer returns the keylet for an offer against a listing. Offer IDs are
// listing-local and start at 1.
func Offer(listingID uint64, offerID uint32) Keylet {
	idBytes := make([]byte, 12)
	binary.BigEndian.PutUint64(idBytes[:8], listingID)
	binary.BigEndian.PutUint32(idBytes[8:], offerID)
	return Keylet{
		Type: entry.TypeOffer,
		Key:  indexHash(spaceOffer, idBytes),
	}
}

// MarketState returns the keylet for the marketplace singleton entry.
func MarketState() Keylet {
	return Keylet{
		Type: entry.TypeMarketState,
		Key:  indexHash(spaceMarketState),
	}
}
