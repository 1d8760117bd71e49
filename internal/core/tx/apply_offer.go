package tx

import (
	"errors"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// Apply applies an OfferCreate transaction. The offerer's consent and
// funding are checked at creation but nothing is escrowed; balance and
// allowance are checked again at settlement.
func (o *OfferCreate) Apply(ctx *ApplyContext) Result {
	listing, res := readListing(ctx, o.ListingID)
	if !res.IsSuccess() {
		return res
	}
	if listing.Status != sle.ListingActive {
		return TecLISTING_NOT_ACTIVE
	}

	account, err := ctx.ReadAccountRoot(o.Account)
	if err != nil || account == nil {
		return TefINTERNAL
	}
	if account.Flags&sle.LsfMarketPaymentApproved == 0 {
		return TecNO_PAYMENT_ALLOWANCE
	}

	balance, err := ctx.PaymentBalance(ctx.AccountID)
	if err != nil {
		return TefINTERNAL
	}
	if balance < o.Price {
		return TecOFFERER_UNFUNDED
	}

	listing.NumOffers++
	offerID := listing.NumOffers
	if res := writeListing(ctx, listing); !res.IsSuccess() {
		return res
	}

	offer := &sle.Offer{
		ListingID: o.ListingID,
		OfferID:   offerID,
		Offerer:   o.Account,
		Price:     o.Price,
		Status:    sle.OfferActive,
	}
	data, err := sle.SerializeOffer(offer)
	if err != nil {
		return TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.Offer(o.ListingID, offerID), data); err != nil {
		return TefINTERNAL
	}

	ctx.Emit(EventOfferCreated, map[string]any{
		"listingId": o.ListingID,
		"offerId":   offerID,
		"offerer":   o.Account,
		"price":     o.Price,
	})
	return TesSUCCESS
}

// readOffer loads an offer or reports its absence.
func readOffer(ctx *ApplyContext, listingID uint64, offerID uint32) (*sle.Offer, Result) {
	data, err := ctx.View.Read(keylet.Offer(listingID, offerID))
	if err != nil {
		return nil, TefINTERNAL
	}
	if data == nil {
		return nil, TecNO_ENTRY
	}
	offer, err := sle.ParseOffer(data)
	if err != nil {
		return nil, TefINTERNAL
	}
	return offer, TesSUCCESS
}

// writeOffer stores an offer back to the view.
func writeOffer(ctx *ApplyContext, offer *sle.Offer) Result {
	data, err := sle.SerializeOffer(offer)
	if err != nil {
		return TefINTERNAL
	}
	if err := ctx.View.Update(keylet.Offer(offer.ListingID, offer.OfferID), data); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// Apply applies an OfferCancel transaction. Only the offerer may cancel,
// and only while the offer is still active.
func (o *OfferCancel) Apply(ctx *ApplyContext) Result {
	offer, res := readOffer(ctx, o.ListingID, o.OfferID)
	if !res.IsSuccess() {
		return res
	}
	if offer.Offerer != o.Account {
		return TecNOT_OFFERER
	}
	if offer.Status != sle.OfferActive {
		return TecOFFER_NOT_ACTIVE
	}

	offer.Status = sle.OfferCancelled
	if res := writeOffer(ctx, offer); !res.IsSuccess() {
		return res
	}

	ctx.Emit(EventOfferCancelled, map[string]any{
		"listingId": o.ListingID,
		"offerId":   o.OfferID,
		"offerer":   offer.Offerer,
	})
	return TesSUCCESS
}

// Apply applies an OfferUpdate transaction.
func (o *OfferUpdate) Apply(ctx *ApplyContext) Result {
	offer, res := readOffer(ctx, o.ListingID, o.OfferID)
	if !res.IsSuccess() {
		return res
	}
	if offer.Offerer != o.Account {
		return TecNOT_OFFERER
	}
	if offer.Status != sle.OfferActive {
		return TecOFFER_NOT_ACTIVE
	}

	offer.Price = o.Price
	if res := writeOffer(ctx, offer); !res.IsSuccess() {
		return res
	}

	ctx.Emit(EventOfferUpdated, map[string]any{
		"listingId": o.ListingID,
		"offerId":   o.OfferID,
		"price":     o.Price,
	})
	return TesSUCCESS
}

// Apply applies an OfferAccept transaction. Both terminal statuses are
// written before either transfer leg runs; if any leg fails the whole
// transaction rolls back, so sibling offers stay untouched and no value
// moves without the statuses flipping with it.
func (o *OfferAccept) Apply(ctx *ApplyContext) Result {
	listing, res := readListing(ctx, o.ListingID)
	if !res.IsSuccess() {
		return res
	}
	if listing.Seller != o.Account {
		return TecNOT_SELLER
	}

	offer, res := readOffer(ctx, o.ListingID, o.OfferID)
	if res == TecNO_ENTRY {
		return TecNO_TARGET
	}
	if !res.IsSuccess() {
		return res
	}
	if offer.Status != sle.OfferActive {
		return TecOFFER_INACTIVE
	}
	if listing.Status != sle.ListingActive {
		return TecLISTING_NOT_ACTIVE
	}

	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return TefINTERNAL
	}
	marketID, err := sle.DecodeAccountID(state.MarketAccount)
	if err != nil {
		return TefINTERNAL
	}
	offererID, err := sle.DecodeAccountID(offer.Offerer)
	if err != nil {
		return TefINTERNAL
	}

	// Terminal statuses first, transfers second.
	offer.Status = sle.OfferAccepted
	if res := writeOffer(ctx, offer); !res.IsSuccess() {
		return res
	}
	listing.Status = sle.ListingSold
	if res := writeListing(ctx, listing); !res.IsSuccess() {
		return res
	}

	// The seller's asset delegation must still be in force.
	approved, err := ctx.AssetApproved(ctx.AccountID, marketID)
	if err != nil {
		return TefINTERNAL
	}
	if !approved {
		return TecAPPROVAL_REVOKED
	}

	// Payment leg: the agreed price moves offerer->seller by consuming
	// the allowance granted to the marketplace.
	if err := ctx.paymentTransferFrom(offererID, marketID, ctx.AccountID, offer.Offerer, state.MarketAccount, o.Account, offer.Price); err != nil {
		switch {
		case errors.Is(err, errInsufficientAllowance):
			return TecALLOWANCE_SHORT
		case errors.Is(err, errInsufficientBalance):
			return TecOFFERER_DIVESTED
		default:
			return TefINTERNAL
		}
	}

	// Asset leg: the listed tokens move seller->offerer.
	if err := ctx.moveAsset(ctx.AccountID, offererID, o.Account, offer.Offerer, listing.AssetID, listing.Amount); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			return TecSELLER_DIVESTED
		}
		return TefINTERNAL
	}

	ctx.Emit(EventOfferAccepted, map[string]any{
		"listingId": listing.ID,
		"offerId":   offer.OfferID,
		"seller":    o.Account,
		"offerer":   offer.Offerer,
		"amount":    listing.Amount,
		"price":     offer.Price,
	})
	return TesSUCCESS
}
