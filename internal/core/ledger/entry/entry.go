// Package entry defines the ledger state entry types.
package entry

// Type identifies the kind of a ledger state entry.
type Type uint16

const (
	TypeUnknown Type = iota

	// TypeAccountRoot holds an account's native balance, sequence number
	// and marketplace approval flags.
	TypeAccountRoot

	// TypeAssetBalance holds one (account, assetID) quantity on the
	// semi-fungible asset ledger.
	TypeAssetBalance

	// TypeAssetApproval records a ledger-level delegated-transfer grant
	// from an asset holder to an operator.
	TypeAssetApproval

	// TypePaymentBalance holds an account's fungible payment balance.
	TypePaymentBalance

	// TypePaymentAllowance records a ledger-level delegated-spend grant
	// from a payment holder to a spender.
	TypePaymentAllowance

	// TypeListing is a marketplace listing.
	TypeListing

	// TypeOffer is a buyer offer against a listing.
	TypeOffer

	// TypeMarketState is the marketplace singleton (listing ID counter,
	// market account, issuers).
	TypeMarketState
)

// String returns the entry type name as stored in serialized entries.
func (t Type) String() string {
	switch t {
	case TypeAccountRoot:
		return "AccountRoot"
	case TypeAssetBalance:
		return "AssetBalance"
	case TypeAssetApproval:
		return "AssetApproval"
	case TypePaymentBalance:
		return "PaymentBalance"
	case TypePaymentAllowance:
		return "PaymentAllowance"
	case TypeListing:
		return "Listing"
	case TypeOffer:
		return "Offer"
	case TypeMarketState:
		return "MarketState"
	default:
		return "Unknown"
	}
}
