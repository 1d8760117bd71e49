package tx

import "errors"

// AssetApprove grants or revokes an operator's right to move all of the
// account's holdings on the asset ledger.
type AssetApprove struct {
	BaseTx

	// Operator is the account being granted or stripped of the delegation (required)
	Operator string `json:"Operator"`

	// Approved grants the delegation when true and revokes it when false
	Approved bool `json:"Approved"`
}

// NewAssetApprove creates a new AssetApprove transaction
func NewAssetApprove(account, operator string, approved bool) *AssetApprove {
	return &AssetApprove{
		BaseTx:   *NewBaseTx(TypeAssetApprove, account),
		Operator: operator,
		Approved: approved,
	}
}

// TxType returns the transaction type
func (a *AssetApprove) TxType() Type {
	return TypeAssetApprove
}

// Validate validates the AssetApprove transaction
func (a *AssetApprove) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	if a.Operator == "" {
		return errors.New("temDST_NEEDED: Operator is required")
	}
	if a.Operator == a.Account {
		return errors.New("temDST_IS_SRC: cannot approve self as operator")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (a *AssetApprove) Flatten() (map[string]any, error) {
	m := a.Common.ToMap()
	m["Operator"] = a.Operator
	m["Approved"] = a.Approved
	return m, nil
}

// PaymentApprove sets the allowance a spender may draw from the account's
// payment ledger balance. The allowance is replaced, not added to; zero
// revokes it.
type PaymentApprove struct {
	BaseTx

	// Spender is the account allowed to draw the allowance (required)
	Spender string `json:"Spender"`

	// Amount is the new allowance
	Amount uint64 `json:"Amount"`
}

// NewPaymentApprove creates a new PaymentApprove transaction
func NewPaymentApprove(account, spender string, amount uint64) *PaymentApprove {
	return &PaymentApprove{
		BaseTx:  *NewBaseTx(TypePaymentApprove, account),
		Spender: spender,
		Amount:  amount,
	}
}

// TxType returns the transaction type
func (a *PaymentApprove) TxType() Type {
	return TypePaymentApprove
}

// Validate validates the PaymentApprove transaction
func (a *PaymentApprove) Validate() error {
	if err := a.BaseTx.Validate(); err != nil {
		return err
	}
	if a.Spender == "" {
		return errors.New("temDST_NEEDED: Spender is required")
	}
	if a.Spender == a.Account {
		return errors.New("temDST_IS_SRC: cannot approve self as spender")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (a *PaymentApprove) Flatten() (map[string]any, error) {
	m := a.Common.ToMap()
	m["Spender"] = a.Spender
	m["Amount"] = a.Amount
	return m, nil
}

// MarketApproveAsset records the account's consent for the marketplace to
// list and settle its asset holdings. The consent flag is checked before
// the asset ledger delegation itself.
type MarketApproveAsset struct {
	BaseTx

	// Approved sets the consent flag when true and clears it when false
	Approved bool `json:"Approved"`
}

// NewMarketApproveAsset creates a new MarketApproveAsset transaction
func NewMarketApproveAsset(account string, approved bool) *MarketApproveAsset {
	return &MarketApproveAsset{
		BaseTx:   *NewBaseTx(TypeMarketApproveAsset, account),
		Approved: approved,
	}
}

// TxType returns the transaction type
func (a *MarketApproveAsset) TxType() Type {
	return TypeMarketApproveAsset
}

// Flatten returns a flat map of all transaction fields
func (a *MarketApproveAsset) Flatten() (map[string]any, error) {
	m := a.Common.ToMap()
	m["Approved"] = a.Approved
	return m, nil
}

// MarketApprovePayment records the account's consent for the marketplace
// to draw on its payment ledger balance when an offer settles.
type MarketApprovePayment struct {
	BaseTx

	// Approved sets the consent flag when true and clears it when false
	Approved bool `json:"Approved"`
}

// NewMarketApprovePayment creates a new MarketApprovePayment transaction
func NewMarketApprovePayment(account string, approved bool) *MarketApprovePayment {
	return &MarketApprovePayment{
		BaseTx:   *NewBaseTx(TypeMarketApprovePayment, account),
		Approved: approved,
	}
}

// TxType returns the transaction type
func (a *MarketApprovePayment) TxType() Type {
	return TypeMarketApprovePayment
}

// Flatten returns a flat map of all transaction fields
func (a *MarketApprovePayment) Flatten() (map[string]any, error) {
	m := a.Common.ToMap()
	m["Approved"] = a.Approved
	return m, nil
}
