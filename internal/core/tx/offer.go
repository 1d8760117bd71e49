package tx

import "errors"

// OfferCreate places a counter-offer of a total price against an active
// listing. No funds are escrowed; the offerer's payment balance and
// marketplace allowance are checked at creation and again at settlement.
type OfferCreate struct {
	BaseTx

	// ListingID identifies the listing being bid on (required)
	ListingID uint64 `json:"ListingID"`

	// Price is the total offered price in payment units (required)
	Price uint64 `json:"Price"`
}

// NewOfferCreate creates a new OfferCreate transaction
func NewOfferCreate(account string, listingID, price uint64) *OfferCreate {
	return &OfferCreate{
		BaseTx:    *NewBaseTx(TypeOfferCreate, account),
		ListingID: listingID,
		Price:     price,
	}
}

// TxType returns the transaction type
func (o *OfferCreate) TxType() Type {
	return TypeOfferCreate
}

// Validate validates the OfferCreate transaction
func (o *OfferCreate) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if o.Price == 0 {
		return errors.New("temBAD_AMOUNT: Price must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (o *OfferCreate) Flatten() (map[string]any, error) {
	m := o.Common.ToMap()
	m["ListingID"] = o.ListingID
	m["Price"] = o.Price
	return m, nil
}

// OfferCancel withdraws an active offer.
type OfferCancel struct {
	BaseTx

	// ListingID identifies the listing the offer was made against (required)
	ListingID uint64 `json:"ListingID"`

	// OfferID identifies the offer within the listing (required)
	OfferID uint32 `json:"OfferID"`
}

// NewOfferCancel creates a new OfferCancel transaction
func NewOfferCancel(account string, listingID uint64, offerID uint32) *OfferCancel {
	return &OfferCancel{
		BaseTx:    *NewBaseTx(TypeOfferCancel, account),
		ListingID: listingID,
		OfferID:   offerID,
	}
}

// TxType returns the transaction type
func (o *OfferCancel) TxType() Type {
	return TypeOfferCancel
}

// Validate validates the OfferCancel transaction
func (o *OfferCancel) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if o.OfferID == 0 {
		return errors.New("temINVALID: OfferID is required")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (o *OfferCancel) Flatten() (map[string]any, error) {
	m := o.Common.ToMap()
	m["ListingID"] = o.ListingID
	m["OfferID"] = o.OfferID
	return m, nil
}

// OfferUpdate changes the price of an active offer.
type OfferUpdate struct {
	BaseTx

	// ListingID identifies the listing the offer was made against (required)
	ListingID uint64 `json:"ListingID"`

	// OfferID identifies the offer within the listing (required)
	OfferID uint32 `json:"OfferID"`

	// Price is the new total offered price (required)
	Price uint64 `json:"Price"`
}

// NewOfferUpdate creates a new OfferUpdate transaction
func NewOfferUpdate(account string, listingID uint64, offerID uint32, price uint64) *OfferUpdate {
	return &OfferUpdate{
		BaseTx:    *NewBaseTx(TypeOfferUpdate, account),
		ListingID: listingID,
		OfferID:   offerID,
		Price:     price,
	}
}

// TxType returns the transaction type
func (o *OfferUpdate) TxType() Type {
	return TypeOfferUpdate
}

// Validate validates the OfferUpdate transaction
func (o *OfferUpdate) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if o.OfferID == 0 {
		return errors.New("temINVALID: OfferID is required")
	}
	if o.Price == 0 {
		return errors.New("temBAD_AMOUNT: Price must be positive")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (o *OfferUpdate) Flatten() (map[string]any, error) {
	m := o.Common.ToMap()
	m["ListingID"] = o.ListingID
	m["OfferID"] = o.OfferID
	m["Price"] = o.Price
	return m, nil
}

// OfferAccept settles a listing against one of its offers: the agreed
// price moves from offerer to seller over the payment ledger using the
// marketplace allowance, and the listed tokens move from seller to
// offerer on the asset ledger. Both legs apply atomically or not at all.
type OfferAccept struct {
	BaseTx

	// ListingID identifies the listing being settled (required)
	ListingID uint64 `json:"ListingID"`

	// OfferID identifies the accepted offer within the listing (required)
	OfferID uint32 `json:"OfferID"`
}

// NewOfferAccept creates a new OfferAccept transaction
func NewOfferAccept(account string, listingID uint64, offerID uint32) *OfferAccept {
	return &OfferAccept{
		BaseTx:    *NewBaseTx(TypeOfferAccept, account),
		ListingID: listingID,
		OfferID:   offerID,
	}
}

// TxType returns the transaction type
func (o *OfferAccept) TxType() Type {
	return TypeOfferAccept
}

// Validate validates the OfferAccept transaction
func (o *OfferAccept) Validate() error {
	if err := o.BaseTx.Validate(); err != nil {
		return err
	}
	if o.ListingID == 0 {
		return errors.New("temINVALID: ListingID is required")
	}
	if o.OfferID == 0 {
		return errors.New("temINVALID: OfferID is required")
	}
	return nil
}

// Flatten returns a flat map of all transaction fields
func (o *OfferAccept) Flatten() (map[string]any, error) {
	m := o.Common.ToMap()
	m["ListingID"] = o.ListingID
	m["OfferID"] = o.OfferID
	return m, nil
}
