package tx

import "errors"

// AssetMint creates new units of an asset on the asset ledger. Only the
// asset issuer recorded in the market state may mint.
type AssetMint struct {
	BaseTx

	// AssetID identifies the asset class to mint (required)
	AssetID uint64 `json:"AssetID"`

	// Amount is the number of units to create (required)
	Amount uint64 `json:"Amount"`

	// Destination receives the minted units; defaults to the issuer
	Destination string `json:"Destination,omitempty"`
}

// NewAssetMint creates a new AssetMint transaction
func NewAssetMint(account string, assetID, amount uint64) *AssetMint {
	return &AssetMint{
		BaseTx:  *NewBaseTx(TypeAssetMint, account),
		AssetID: assetID,
		Amount:  amount,
	}
}

// TxType returns the transaction type
func (m *AssetMint) TxType() Type {
	return TypeAssetMint
}

// Validate validates the AssetMint transaction
func (m *AssetMint) Validate() error {
	if err := m.BaseTx.Validate(); err != nil {
		return err
	}
	if m.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (m *AssetMint) Flatten() (map[string]any, error) {
	flat := m.Common.ToMap()
	flat["AssetID"] = m.AssetID
	flat["Amount"] = m.Amount
	if m.Destination != "" {
		flat["Destination"] = m.Destination
	}
	return flat, nil
}

// PaymentMint creates new units on the payment ledger. Only the payment
// issuer recorded in the market state may mint.
type PaymentMint struct {
	BaseTx

	// Amount is the number of units to create (required)
	Amount uint64 `json:"Amount"`

	// Destination receives the minted units; defaults to the issuer
	Destination string `json:"Destination,omitempty"`
}

// NewPaymentMint creates a new PaymentMint transaction
func NewPaymentMint(account string, amount uint64) *PaymentMint {
	return &PaymentMint{
		BaseTx: *NewBaseTx(TypePaymentMint, account),
		Amount: amount,
	}
}

// TxType returns the transaction type
func (m *PaymentMint) TxType() Type {
	return TypePaymentMint
}

// Validate validates the PaymentMint transaction
func (m *PaymentMint) Validate() error {
	if err := m.BaseTx.Validate(); err != nil {
		return err
	}
	if m.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (m *PaymentMint) Flatten() (map[string]any, error) {
	flat := m.Common.ToMap()
	flat["Amount"] = m.Amount
	if m.Destination != "" {
		flat["Destination"] = m.Destination
	}
	return flat, nil
}
