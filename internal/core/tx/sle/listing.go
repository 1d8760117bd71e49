package sle

// ListingStatus is the lifecycle state of a listing. Active is the only
// non-terminal state: a listing moves Active->Sold or Active->Cancelled
// and never leaves a terminal state.
type ListingStatus uint8

const (
	ListingActive ListingStatus = iota
	ListingSold
	ListingCancelled
)

// String returns the status name.
func (s ListingStatus) String() string {
	switch s {
	case ListingActive:
		return "Active"
	case ListingSold:
		return "Sold"
	case ListingCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Listing is a seller's standing offer to sell Amount units of AssetID
// for the total Price in payment units. IDs are global, monotonically
// assigned and never reused. NumOffers counts every offer ever created
// against this listing and doubles as the listing-local offer ID
// allocator.
type Listing struct {
	ID        uint64        `codec:"ID" json:"ID"`
	AssetID   uint64        `codec:"AssetID" json:"AssetID"`
	Amount    uint64        `codec:"Amount" json:"Amount"`
	Price     uint64        `codec:"Price" json:"Price"`
	Seller    string        `codec:"Seller" json:"Seller"`
	Status    ListingStatus `codec:"Status" json:"Status"`
	NumOffers uint32        `codec:"NumOffers" json:"NumOffers"`
}

// SerializeListing encodes a listing for storage.
func SerializeListing(l *Listing) ([]byte, error) {
	return Encode(l)
}

// ParseListing decodes a listing entry.
func ParseListing(data []byte) (*Listing, error) {
	var l Listing
	if err := Decode(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// OfferStatus is the lifecycle state of an offer. Cancelled and Accepted
// are terminal.
type OfferStatus uint8

const (
	OfferActive OfferStatus = iota
	OfferCancelled
	OfferAccepted
)

// String returns the status name.
func (s OfferStatus) String() string {
	switch s {
	case OfferActive:
		return "Active"
	case OfferCancelled:
		return "Cancelled"
	case OfferAccepted:
		return "Accepted"
	default:
		return "Unknown"
	}
}

// Offer is a buyer's counter-proposal of a total price against an Active
// listing, keyed (ListingID, OfferID) with listing-local IDs starting
// at 1.
type Offer struct {
	ListingID uint64      `codec:"ListingID" json:"ListingID"`
	OfferID   uint32      `codec:"OfferID" json:"OfferID"`
	Offerer   string      `codec:"Offerer" json:"Offerer"`
	Price     uint64      `codec:"Price" json:"Price"`
	Status    OfferStatus `codec:"Status" json:"Status"`
}

// SerializeOffer encodes an offer for storage.
func SerializeOffer(o *Offer) ([]byte, error) {
	return Encode(o)
}

// ParseOffer decodes an offer entry.
func ParseOffer(data []byte) (*Offer, error) {
	var o Offer
	if err := Decode(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
