package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

const (
	TypeInvalid Type = 0xFFFF // Invalid/unknown type

	// Native coin transfer
	TypePayment Type = 0

	// Asset ledger (semi-fungible tokens)
	TypeAssetMint    Type = 1
	TypeAssetApprove Type = 2

	// Payment ledger (fungible payment tokens)
	TypePaymentMint    Type = 3
	TypePaymentApprove Type = 4

	// Marketplace approvals
	TypeMarketApproveAsset   Type = 5
	TypeMarketApprovePayment Type = 6

	// Listings
	TypeSaleCreate Type = 7
	TypeSaleCancel Type = 8
	TypeSaleUpdate Type = 9
	TypeTokenBuy   Type = 10

	// Offers against listings
	TypeOfferCreate Type = 11
	TypeOfferCancel Type = 12
	TypeOfferUpdate Type = 13
	TypeOfferAccept Type = 14
)

// String returns the string name of the transaction type
func (t Type) String() string {
	switch t {
	case TypePayment:
		return "Payment"
	case TypeAssetMint:
		return "AssetMint"
	case TypeAssetApprove:
		return "AssetApprove"
	case TypePaymentMint:
		return "PaymentMint"
	case TypePaymentApprove:
		return "PaymentApprove"
	case TypeMarketApproveAsset:
		return "MarketApproveAsset"
	case TypeMarketApprovePayment:
		return "MarketApprovePayment"
	case TypeSaleCreate:
		return "SaleCreate"
	case TypeSaleCancel:
		return "SaleCancel"
	case TypeSaleUpdate:
		return "SaleUpdate"
	case TypeTokenBuy:
		return "TokenBuy"
	case TypeOfferCreate:
		return "OfferCreate"
	case TypeOfferCancel:
		return "OfferCancel"
	case TypeOfferUpdate:
		return "OfferUpdate"
	case TypeOfferAccept:
		return "OfferAccept"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// TypeFromName converts a transaction type name to a Type
func TypeFromName(name string) (Type, bool) {
	switch name {
	case "Payment":
		return TypePayment, true
	case "AssetMint":
		return TypeAssetMint, true
	case "AssetApprove":
		return TypeAssetApprove, true
	case "PaymentMint":
		return TypePaymentMint, true
	case "PaymentApprove":
		return TypePaymentApprove, true
	case "MarketApproveAsset":
		return TypeMarketApproveAsset, true
	case "MarketApprovePayment":
		return TypeMarketApprovePayment, true
	case "SaleCreate":
		return TypeSaleCreate, true
	case "SaleCancel":
		return TypeSaleCancel, true
	case "SaleUpdate":
		return TypeSaleUpdate, true
	case "TokenBuy":
		return TypeTokenBuy, true
	case "OfferCreate":
		return TypeOfferCreate, true
	case "OfferCancel":
		return TypeOfferCancel, true
	case "OfferUpdate":
		return TypeOfferUpdate, true
	case "OfferAccept":
		return TypeOfferAccept, true
	default:
		return TypeInvalid, false
	}
}
