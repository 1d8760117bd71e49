package tx

import (
	"errors"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// Apply applies a SaleCreate transaction. The seller must have consented
// to the marketplace, delegated the asset ledger to it, and hold the
// listed tokens. Nothing is escrowed; holdings are re-checked when the
// listing settles.
func (s *SaleCreate) Apply(ctx *ApplyContext) Result {
	account, err := ctx.ReadAccountRoot(s.Account)
	if err != nil || account == nil {
		return TefINTERNAL
	}
	if account.Flags&sle.LsfMarketAssetApproved == 0 {
		return TecNO_MARKET_APPROVAL
	}

	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return TefINTERNAL
	}
	marketID, err := sle.DecodeAccountID(state.MarketAccount)
	if err != nil {
		return TefINTERNAL
	}

	approved, err := ctx.AssetApproved(ctx.AccountID, marketID)
	if err != nil {
		return TefINTERNAL
	}
	if !approved {
		return TecNO_ASSET_APPROVAL
	}

	balance, err := ctx.AssetBalance(ctx.AccountID, s.AssetID)
	if err != nil {
		return TefINTERNAL
	}
	if balance < s.Amount {
		return TecINSUFFICIENT_TOKENS
	}

	listingID := state.NextListingID
	state.NextListingID++
	if err := ctx.UpdateMarketState(state); err != nil {
		return TefINTERNAL
	}

	listing := &sle.Listing{
		ID:      listingID,
		AssetID: s.AssetID,
		Amount:  s.Amount,
		Price:   s.Price,
		Seller:  s.Account,
		Status:  sle.ListingActive,
	}
	data, err := sle.SerializeListing(listing)
	if err != nil {
		return TefINTERNAL
	}
	if err := ctx.View.Insert(keylet.Listing(listingID), data); err != nil {
		return TefINTERNAL
	}

	ctx.Emit(EventSaleCreated, map[string]any{
		"listingId": listingID,
		"assetId":   s.AssetID,
		"amount":    s.Amount,
		"price":     s.Price,
		"seller":    s.Account,
	})
	return TesSUCCESS
}

// readListing loads a listing or reports its absence.
func readListing(ctx *ApplyContext, listingID uint64) (*sle.Listing, Result) {
	data, err := ctx.View.Read(keylet.Listing(listingID))
	if err != nil {
		return nil, TefINTERNAL
	}
	if data == nil {
		return nil, TecNO_ENTRY
	}
	listing, err := sle.ParseListing(data)
	if err != nil {
		return nil, TefINTERNAL
	}
	return listing, TesSUCCESS
}

// writeListing stores a listing back to the view.
func writeListing(ctx *ApplyContext, listing *sle.Listing) Result {
	data, err := sle.SerializeListing(listing)
	if err != nil {
		return TefINTERNAL
	}
	if err := ctx.View.Update(keylet.Listing(listing.ID), data); err != nil {
		return TefINTERNAL
	}
	return TesSUCCESS
}

// Apply applies a SaleCancel transaction.
func (s *SaleCancel) Apply(ctx *ApplyContext) Result {
	listing, res := readListing(ctx, s.ListingID)
	if !res.IsSuccess() {
		return res
	}
	if listing.Seller != s.Account {
		return TecNOT_SELLER_OF_LISTING
	}
	if listing.Status != sle.ListingActive {
		return TecLISTING_NOT_ACTIVE
	}

	listing.Status = sle.ListingCancelled
	if res := writeListing(ctx, listing); !res.IsSuccess() {
		return res
	}

	ctx.Emit(EventSaleCancelled, map[string]any{
		"listingId": listing.ID,
		"seller":    listing.Seller,
	})
	return TesSUCCESS
}

// Apply applies a SaleUpdate transaction.
func (s *SaleUpdate) Apply(ctx *ApplyContext) Result {
	listing, res := readListing(ctx, s.ListingID)
	if !res.IsSuccess() {
		return res
	}
	if listing.Seller != s.Account {
		return TecNOT_SELLER_OF_LISTING
	}
	if listing.Status != sle.ListingActive {
		return TecLISTING_NOT_ACTIVE
	}

	balance, err := ctx.AssetBalance(ctx.AccountID, listing.AssetID)
	if err != nil {
		return TefINTERNAL
	}
	if balance < s.Amount {
		return TecINSUFFICIENT_TOKENS
	}

	listing.Amount = s.Amount
	listing.Price = s.Price
	if res := writeListing(ctx, listing); !res.IsSuccess() {
		return res
	}

	ctx.Emit(EventSaleUpdated, map[string]any{
		"listingId": listing.ID,
		"seller":    listing.Seller,
		"amount":    s.Amount,
		"price":     s.Price,
	})
	return TesSUCCESS
}

// Apply applies a TokenBuy transaction. The listing is marked sold
// before any value moves, so a failing transfer leg can never leave a
// half-settled listing behind: the whole transaction rolls back.
func (t *TokenBuy) Apply(ctx *ApplyContext) Result {
	listing, res := readListing(ctx, t.ListingID)
	if !res.IsSuccess() {
		return res
	}
	if listing.Status != sle.ListingActive {
		return TecLISTING_NOT_ACTIVE
	}
	if t.Tendered < listing.Price {
		return TecINSUFFICIENT_PAYMENT
	}

	buyer, err := ctx.ReadAccountRoot(t.Account)
	if err != nil || buyer == nil {
		return TefINTERNAL
	}
	if buyer.Balance < t.Tendered {
		return TecINSUFFICIENT_FUNDS
	}

	sellerID, err := sle.DecodeAccountID(listing.Seller)
	if err != nil {
		return TefINTERNAL
	}
	state, err := ctx.ReadMarketState()
	if err != nil || state == nil {
		return TefINTERNAL
	}
	marketID, err := sle.DecodeAccountID(state.MarketAccount)
	if err != nil {
		return TefINTERNAL
	}

	// Terminal status first, transfers second.
	listing.Status = sle.ListingSold
	if res := writeListing(ctx, listing); !res.IsSuccess() {
		return res
	}

	// The seller's delegation must still be in force at settlement.
	approved, err := ctx.AssetApproved(sellerID, marketID)
	if err != nil {
		return TefINTERNAL
	}
	if !approved {
		return TecAPPROVAL_REVOKED
	}

	// The full tendered amount goes to the seller.
	if err := ctx.moveNative(t.Account, listing.Seller, t.Tendered); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			return TecINSUFFICIENT_FUNDS
		}
		return TefINTERNAL
	}

	if err := ctx.moveAsset(sellerID, ctx.AccountID, listing.Seller, t.Account, listing.AssetID, listing.Amount); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			return TecSELLER_DIVESTED
		}
		return TefINTERNAL
	}

	ctx.Emit(EventTokenBought, map[string]any{
		"listingId": listing.ID,
		"buyer":     t.Account,
		"seller":    listing.Seller,
		"amount":    listing.Amount,
		"price":     listing.Price,
	})
	return TesSUCCESS
}
