package service

import (
	"context"
	"fmt"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/storage/relationaldb"
)

// persistLedger writes a validated ledger to the configured backends.
// Called with the service lock held.
func (s *Service) persistLedger(ctx context.Context, l *ledger.Ledger) error {
	if s.manager != nil {
		if err := s.manager.StoreLedger(ctx, l); err != nil {
			return err
		}
	}
	if s.history != nil {
		if err := s.persistHistory(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// persistHistory indexes the ledger's transactions and trades in the
// history database.
func (s *Service) persistHistory(ctx context.Context, l *ledger.Ledger) error {
	h := l.Header()
	info := &relationaldb.LedgerInfo{
		Sequence:   h.Sequence,
		Hash:       keylet.Hex(h.Hash),
		ParentHash: keylet.Hex(h.ParentHash),
		StateHash:  keylet.Hex(h.StateHash),
		TxHash:     keylet.Hex(h.TxHash),
		TotalCoins: h.TotalCoins,
		CloseTime:  h.CloseTime,
		TxCount:    uint32(len(l.Transactions())),
	}

	var txs []*relationaldb.TransactionInfo
	var trades []*relationaldb.Trade

	for _, rec := range l.Transactions() {
		txInfo := &relationaldb.TransactionInfo{
			Hash:      keylet.Hex(rec.Hash),
			LedgerSeq: h.Sequence,
			TxIndex:   rec.Index,
			Account:   rec.Account,
			TxType:    rec.TxType,
			TxBlob:    rec.Blob,
		}
		if rec.Meta != nil {
			txInfo.Result = rec.Meta.TransactionResult.String()
			meta, err := sle.Encode(rec.Meta)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for %s: %w", txInfo.Hash, err)
			}
			txInfo.MetaBlob = meta
		}
		txs = append(txs, txInfo)

		recTrades, err := extractTrades(l, rec)
		if err != nil {
			return err
		}
		trades = append(trades, recTrades...)
	}

	return s.history.SaveValidatedLedger(ctx, info, txs, trades)
}

// extractTrades converts a transaction's settlement events into trade
// rows. Both kinds read the listing entry for the asset id; the rest
// comes from the event payload or the listing.
func extractTrades(l *ledger.Ledger, rec *ledger.TxRecord) ([]*relationaldb.Trade, error) {
	if rec.Meta == nil || rec.Meta.TransactionResult != tx.TesSUCCESS {
		return nil, nil
	}

	var trades []*relationaldb.Trade
	for _, ev := range rec.Meta.Events {
		switch ev.Name {
		case tx.EventTokenBought:
			listingID := asUint64(ev.Data["listingId"])
			listing, err := readListingEntry(l, listingID)
			if err != nil {
				return nil, err
			}
			trades = append(trades, &relationaldb.Trade{
				Kind:      relationaldb.TradeSale,
				ListingID: listingID,
				AssetID:   listing.AssetID,
				Amount:    listing.Amount,
				Price:     asUint64(ev.Data["price"]),
				Seller:    listing.Seller,
				Buyer:     asString(ev.Data["buyer"]),
				LedgerSeq: l.Sequence(),
				TxHash:    keylet.Hex(rec.Hash),
			})
		case tx.EventOfferAccepted:
			listingID := asUint64(ev.Data["listingId"])
			listing, err := readListingEntry(l, listingID)
			if err != nil {
				return nil, err
			}
			trades = append(trades, &relationaldb.Trade{
				Kind:      relationaldb.TradeOffer,
				ListingID: listingID,
				OfferID:   uint32(asUint64(ev.Data["offerId"])),
				AssetID:   listing.AssetID,
				Amount:    asUint64(ev.Data["amount"]),
				Price:     asUint64(ev.Data["price"]),
				Seller:    asString(ev.Data["seller"]),
				Buyer:     asString(ev.Data["offerer"]),
				LedgerSeq: l.Sequence(),
				TxHash:    keylet.Hex(rec.Hash),
			})
		}
	}
	return trades, nil
}

func readListingEntry(l *ledger.Ledger, listingID uint64) (*sle.Listing, error) {
	data, err := l.Read(keylet.Listing(listingID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("listing %d not found in ledger %d", listingID, l.Sequence())
	}
	return sle.ParseListing(data)
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
