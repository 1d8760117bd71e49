package tx

import (
	"encoding/json"
	"errors"
)

// ErrUnknownTransactionType is returned when a transaction type is unknown
var ErrUnknownTransactionType = errors.New("unknown transaction type")

// FromJSON creates a Transaction from a JSON object
func FromJSON(data []byte) (Transaction, error) {
	var raw struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	txType, ok := TypeFromName(raw.TransactionType)
	if !ok {
		return nil, ErrUnknownTransactionType
	}

	tx, err := NewFromType(txType)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// NewFromType creates a new transaction of the given type
func NewFromType(txType Type) (Transaction, error) {
	switch txType {
	case TypePayment:
		return &Payment{BaseTx: *NewBaseTx(TypePayment, "")}, nil
	case TypeAssetMint:
		return &AssetMint{BaseTx: *NewBaseTx(TypeAssetMint, "")}, nil
	case TypeAssetApprove:
		return &AssetApprove{BaseTx: *NewBaseTx(TypeAssetApprove, "")}, nil
	case TypePaymentMint:
		return &PaymentMint{BaseTx: *NewBaseTx(TypePaymentMint, "")}, nil
	case TypePaymentApprove:
		return &PaymentApprove{BaseTx: *NewBaseTx(TypePaymentApprove, "")}, nil
	case TypeMarketApproveAsset:
		return &MarketApproveAsset{BaseTx: *NewBaseTx(TypeMarketApproveAsset, "")}, nil
	case TypeMarketApprovePayment:
		return &MarketApprovePayment{BaseTx: *NewBaseTx(TypeMarketApprovePayment, "")}, nil
	case TypeSaleCreate:
		return &SaleCreate{BaseTx: *NewBaseTx(TypeSaleCreate, "")}, nil
	case TypeSaleCancel:
		return &SaleCancel{BaseTx: *NewBaseTx(TypeSaleCancel, "")}, nil
	case TypeSaleUpdate:
		return &SaleUpdate{BaseTx: *NewBaseTx(TypeSaleUpdate, "")}, nil
	case TypeTokenBuy:
		return &TokenBuy{BaseTx: *NewBaseTx(TypeTokenBuy, "")}, nil
	case TypeOfferCreate:
		return &OfferCreate{BaseTx: *NewBaseTx(TypeOfferCreate, "")}, nil
	case TypeOfferCancel:
		return &OfferCancel{BaseTx: *NewBaseTx(TypeOfferCancel, "")}, nil
	case TypeOfferUpdate:
		return &OfferUpdate{BaseTx: *NewBaseTx(TypeOfferUpdate, "")}, nil
	case TypeOfferAccept:
		return &OfferAccept{BaseTx: *NewBaseTx(TypeOfferAccept, "")}, nil
	default:
		return nil, ErrUnknownTransactionType
	}
}

// ToJSON converts a Transaction to JSON
func ToJSON(tx Transaction) ([]byte, error) {
	flat, err := tx.Flatten()
	if err != nil {
		return nil, err
	}
	return json.Marshal(flat)
}

// SupportedTypes returns all supported transaction types
func SupportedTypes() []Type {
	return []Type{
		TypePayment,
		TypeAssetMint,
		TypeAssetApprove,
		TypePaymentMint,
		TypePaymentApprove,
		TypeMarketApproveAsset,
		TypeMarketApprovePayment,
		TypeSaleCreate,
		TypeSaleCancel,
		TypeSaleUpdate,
		TypeTokenBuy,
		TypeOfferCreate,
		TypeOfferCancel,
		TypeOfferUpdate,
		TypeOfferAccept,
	}
}
