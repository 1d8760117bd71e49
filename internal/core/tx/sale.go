package tx

import "errors"

// SaleCreate lists an amount of an asset for sale at a total price. The
// tokens stay with the seller until settlement; listing only requires
// that the seller has consented to the marketplace, delegated the asset
// ledger to it, and currently holds the tokens.
type SaleCreate struct {
	BaseTx

	// AssetID identifies the asset class being listed (required)
	AssetID uint64 `json:"AssetID"`

	// Amount is the number of units offered (required)
	Amount uint64 `json:"Amount"`

	// Price is the total asking price in payment units (required)
	Price uint64 `json:"Price"`
}

// NewSaleCreate creates a new SaleCreate transaction
func NewSaleCreate(account string, assetID, amount, price uint64) *SaleCreate {
	return &SaleCreate{
		BaseTx:  *NewBaseTx(TypeSaleCreate, account),
		AssetID: assetID,
		Amount:  amount,
		Price:   price,
	}
}

// TxType returns the transaction type
func (s *SaleCreate) TxType() Type {
	return TypeSaleCreate
}

// Validate validates the SaleCreate transaction
func (s *SaleCreate) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	if s.Price == 0 {
		return errors.New("temBAD_AMOUNT: Price must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (s *SaleCreate) Flatten() (map[string]any, error) {
	m := s.Common.ToMap()
	m["AssetID"] = s.AssetID
	m["Amount"] = s.Amount
	m["Price"] = s.Price
	return m, nil
}

// SaleCancel withdraws an active listing.
type SaleCancel struct {
	BaseTx

	// ListingID identifies the listing to cancel (required)
	ListingID uint64 `json:"ListingID"`
}

// NewSaleCancel creates a new SaleCancel transaction
func NewSaleCancel(account string, listingID uint64) *SaleCancel {
	return &SaleCancel{
		BaseTx:    *NewBaseTx(TypeSaleCancel, account),
		ListingID: listingID,
	}
}

// TxType returns the transaction type
func (s *SaleCancel) TxType() Type {
	return TypeSaleCancel
}

// Validate validates the SaleCancel transaction
func (s *SaleCancel) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (s *SaleCancel) Flatten() (map[string]any, error) {
	m := s.Common.ToMap()
	m["ListingID"] = s.ListingID
	return m, nil
}

// SaleUpdate changes the amount and asking price of an active listing.
// The new amount must still be backed by the seller's current holdings.
type SaleUpdate struct {
	BaseTx

	// ListingID identifies the listing to update (required)
	ListingID uint64 `json:"ListingID"`

	// Amount is the new number of units offered (required)
	Amount uint64 `json:"Amount"`

	// Price is the new total asking price (required)
	Price uint64 `json:"Price"`
}

// NewSaleUpdate creates a new SaleUpdate transaction
func NewSaleUpdate(account string, listingID, amount, price uint64) *SaleUpdate {
	return &SaleUpdate{
		BaseTx:    *NewBaseTx(TypeSaleUpdate, account),
		ListingID: listingID,
		Amount:    amount,
		Price:     price,
	}
}

// TxType returns the transaction type
func (s *SaleUpdate) TxType() Type {
	return TypeSaleUpdate
}

// Validate validates the SaleUpdate transaction
func (s *SaleUpdate) Validate() error {
	if err := s.BaseTx.Validate(); err != nil {
		return err
	}
	if s.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if s.Amount == 0 {
		return errors.New("temBAD_AMOUNT: Amount must be positive")
	}
	if s.Price == 0 {
		return errors.New("temBAD_AMOUNT: Price must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (s *SaleUpdate) Flatten() (map[string]any, error) {
	m := s.Common.ToMap()
	m["ListingID"] = s.ListingID
	m["Amount"] = s.Amount
	m["Price"] = s.Price
	return m, nil
}

// TokenBuy purchases a listing outright for native coin. The tendered
// amount must cover the asking price and moves to the seller in full.
type TokenBuy struct {
	BaseTx

	// ListingID identifies the listing to buy (required)
	ListingID uint64 `json:"ListingID"`

	// Tendered is the native amount offered in payment (required)
	Tendered uint64 `json:"Tendered"`
}

// NewTokenBuy creates a new TokenBuy transaction
func NewTokenBuy(account string, listingID, tendered uint64) *TokenBuy {
	return &TokenBuy{
		BaseTx:    *NewBaseTx(TypeTokenBuy, account),
		ListingID: listingID,
		Tendered:  tendered,
	}
}

// TxType returns the transaction type
func (t *TokenBuy) TxType() Type {
	return TypeTokenBuy
}

// Validate validates the TokenBuy transaction
func (t *TokenBuy) Validate() error {
	if err := t.BaseTx.Validate(); err != nil {
		return err
	}
	if t.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if t.Tendered == 0 {
		return errors.New("temBAD_AMOUNT: Tendered must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (t *TokenBuy) Flatten() (map[string]any, error) {
	m := t.Common.ToMap()
	m["ListingID"] = t.ListingID
	m["Tendered"] = t.Tendered
	return m, nil
}
