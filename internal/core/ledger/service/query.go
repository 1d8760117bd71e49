package service

import (
	"context"
	"errors"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/storage/relationaldb"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrNoHistory       = errors.New("history database not configured")
)

// QueryMeta identifies the ledger a query answered against.
type QueryMeta struct {
	LedgerIndex uint32   `json:"ledger_index"`
	LedgerHash  [32]byte `json:"ledger_hash"`
	Validated   bool     `json:"validated"`
}

// AccountInfoResult is the answer to an account_info query.
type AccountInfoResult struct {
	Account  string `json:"account"`
	Balance  uint64 `json:"balance"`
	Sequence uint32 `json:"sequence"`
	Flags    uint32 `json:"flags"`

	// MarketAssetApproved reflects the marketplace asset approval flag.
	MarketAssetApproved bool `json:"market_asset_approved"`

	// MarketPaymentApproved reflects the marketplace payment approval
	// flag.
	MarketPaymentApproved bool `json:"market_payment_approved"`

	QueryMeta
}

// GetAccountInfo reads an account root from the selected ledger.
func (s *Service) GetAccountInfo(account, ledgerIndex string) (*AccountInfoResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	accountID, err := sle.DecodeAccountID(account)
	if err != nil {
		return nil, err
	}

	data, err := l.Read(keylet.Account(accountID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrAccountNotFound
	}
	root, err := sle.ParseAccountRoot(data)
	if err != nil {
		return nil, err
	}

	return &AccountInfoResult{
		Account:               root.Account,
		Balance:               root.Balance,
		Sequence:              root.Sequence,
		Flags:                 root.Flags,
		MarketAssetApproved:   root.Flags&sle.LsfMarketAssetApproved != 0,
		MarketPaymentApproved: root.Flags&sle.LsfMarketPaymentApproved != 0,
		QueryMeta:             QueryMeta{l.Sequence(), l.Hash(), validated},
	}, nil
}

// AssetBalanceResult is the answer to an asset_balance query.
type AssetBalanceResult struct {
	Account string `json:"account"`
	AssetID uint64 `json:"asset_id"`
	Balance uint64 `json:"balance"`

	QueryMeta
}

// GetAssetBalance reads one semi-fungible asset balance. A missing
// entry is a zero balance.
func (s *Service) GetAssetBalance(account string, assetID uint64, ledgerIndex string) (*AssetBalanceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}
	accountID, err := sle.DecodeAccountID(account)
	if err != nil {
		return nil, err
	}

	result := &AssetBalanceResult{
		Account:   account,
		AssetID:   assetID,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}

	data, err := l.Read(keylet.AssetBalance(accountID, assetID))
	if err != nil {
		return nil, err
	}
	if data != nil {
		bal, err := sle.ParseAssetBalance(data)
		if err != nil {
			return nil, err
		}
		result.Balance = bal.Amount
	}
	return result, nil
}

// AssetApprovalResult is the answer to an asset_approval query.
type AssetApprovalResult struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`

	QueryMeta
}

// GetAssetApproval reports whether owner has approved operator on the
// asset ledger.
func (s *Service) GetAssetApproval(owner, operator, ledgerIndex string) (*AssetApprovalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}
	ownerID, err := sle.DecodeAccountID(owner)
	if err != nil {
		return nil, err
	}
	operatorID, err := sle.DecodeAccountID(operator)
	if err != nil {
		return nil, err
	}

	exists, err := l.Exists(keylet.AssetApproval(ownerID, operatorID))
	if err != nil {
		return nil, err
	}
	return &AssetApprovalResult{
		Owner:     owner,
		Operator:  operator,
		Approved:  exists,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}, nil
}

// PaymentBalanceResult is the answer to a payment_balance query.
type PaymentBalanceResult struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`

	QueryMeta
}

// GetPaymentBalance reads an account's payment token balance.
func (s *Service) GetPaymentBalance(account, ledgerIndex string) (*PaymentBalanceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}
	accountID, err := sle.DecodeAccountID(account)
	if err != nil {
		return nil, err
	}

	result := &PaymentBalanceResult{
		Account:   account,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}

	data, err := l.Read(keylet.PaymentBalance(accountID))
	if err != nil {
		return nil, err
	}
	if data != nil {
		bal, err := sle.ParsePaymentBalance(data)
		if err != nil {
			return nil, err
		}
		result.Balance = bal.Amount
	}
	return result, nil
}

// PaymentAllowanceResult is the answer to a payment_allowance query.
type PaymentAllowanceResult struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`

	QueryMeta
}

// GetPaymentAllowance reads the allowance owner granted spender. A
// missing entry is a zero allowance.
func (s *Service) GetPaymentAllowance(owner, spender, ledgerIndex string) (*PaymentAllowanceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}
	ownerID, err := sle.DecodeAccountID(owner)
	if err != nil {
		return nil, err
	}
	spenderID, err := sle.DecodeAccountID(spender)
	if err != nil {
		return nil, err
	}

	result := &PaymentAllowanceResult{
		Owner:     owner,
		Spender:   spender,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}

	data, err := l.Read(keylet.PaymentAllowance(ownerID, spenderID))
	if err != nil {
		return nil, err
	}
	if data != nil {
		allowance, err := sle.ParsePaymentAllowance(data)
		if err != nil {
			return nil, err
		}
		result.Amount = allowance.Amount
	}
	return result, nil
}

// ListingResult is the answer to a listing query.
type ListingResult struct {
	Listing *sle.Listing `json:"listing"`

	QueryMeta
}

// GetListing reads one listing.
func (s *Service) GetListing(listingID uint64, ledgerIndex string) (*ListingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	data, err := l.Read(keylet.Listing(listingID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrListingNotFound
	}
	listing, err := sle.ParseListing(data)
	if err != nil {
		return nil, err
	}
	return &ListingResult{
		Listing:   listing,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}, nil
}

// ListingsResult is the answer to a listings scan.
type ListingsResult struct {
	Listings []*sle.Listing `json:"listings"`

	QueryMeta
}

// GetListings reads every listing, optionally only active ones.
func (s *Service) GetListings(activeOnly bool, ledgerIndex string) (*ListingsResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	stateData, err := l.Read(keylet.MarketState())
	if err != nil {
		return nil, err
	}
	if stateData == nil {
		return nil, errors.New("market state not found")
	}
	state, err := sle.ParseMarketState(stateData)
	if err != nil {
		return nil, err
	}

	result := &ListingsResult{
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}
	for id := uint64(1); id < state.NextListingID; id++ {
		data, err := l.Read(keylet.Listing(id))
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		listing, err := sle.ParseListing(data)
		if err != nil {
			return nil, err
		}
		if activeOnly && listing.Status != sle.ListingActive {
			continue
		}
		result.Listings = append(result.Listings, listing)
	}
	return result, nil
}

// OfferResult is the answer to an offer query.
type OfferResult struct {
	Offer *sle.Offer `json:"offer"`

	QueryMeta
}

// GetOffer reads one offer on a listing.
func (s *Service) GetOffer(listingID uint64, offerID uint32, ledgerIndex string) (*OfferResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	data, err := l.Read(keylet.Offer(listingID, offerID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrOfferNotFound
	}
	offer, err := sle.ParseOffer(data)
	if err != nil {
		return nil, err
	}
	return &OfferResult{
		Offer:     offer,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}, nil
}

// ListingOffersResult holds every offer made on one listing.
type ListingOffersResult struct {
	ListingID uint64       `json:"listing_id"`
	Offers    []*sle.Offer `json:"offers"`

	QueryMeta
}

// GetListingOffers reads all offers on a listing.
func (s *Service) GetListingOffers(listingID uint64, ledgerIndex string) (*ListingOffersResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, err
	}

	data, err := l.Read(keylet.Listing(listingID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrListingNotFound
	}
	listing, err := sle.ParseListing(data)
	if err != nil {
		return nil, err
	}

	result := &ListingOffersResult{
		ListingID: listingID,
		QueryMeta: QueryMeta{l.Sequence(), l.Hash(), validated},
	}
	for id := uint32(1); id <= listing.NumOffers; id++ {
		offerData, err := l.Read(keylet.Offer(listingID, id))
		if err != nil {
			return nil, err
		}
		if offerData == nil {
			continue
		}
		offer, err := sle.ParseOffer(offerData)
		if err != nil {
			return nil, err
		}
		result.Offers = append(result.Offers, offer)
	}
	return result, nil
}

// GetMarketInfo reads the market state entry.
func (s *Service) GetMarketInfo(ledgerIndex string) (*sle.MarketState, *QueryMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, validated, err := s.getLedgerForQuery(ledgerIndex)
	if err != nil {
		return nil, nil, err
	}

	data, err := l.Read(keylet.MarketState())
	if err != nil {
		return nil, nil, err
	}
	if data == nil {
		return nil, nil, errors.New("market state not found")
	}
	state, err := sle.ParseMarketState(data)
	if err != nil {
		return nil, nil, err
	}
	return state, &QueryMeta{l.Sequence(), l.Hash(), validated}, nil
}

// TxResult is the answer to a tx query.
type TxResult struct {
	Hash        string       `json:"hash"`
	LedgerIndex uint32       `json:"ledger_index"`
	TxBlob      []byte       `json:"tx_blob"`
	Meta        *tx.Metadata `json:"meta,omitempty"`
	Validated   bool         `json:"validated"`
}

// GetTransaction looks up a transaction by hash, in memory first and
// then in the history database.
func (s *Service) GetTransaction(ctx context.Context, hash [32]byte) (*TxResult, error) {
	s.mu.RLock()
	seq, found := s.txIndex[hash]
	var rec *ledgerTxLookup
	if found {
		if l, ok := s.ledgerHistory[seq]; ok {
			if r, ok := l.FindTransaction(hash); ok {
				rec = &ledgerTxLookup{record: r, seq: seq, validated: l.IsValidated()}
			}
		} else if s.openLedger != nil && s.openLedger.Sequence() == seq {
			if r, ok := s.openLedger.FindTransaction(hash); ok {
				rec = &ledgerTxLookup{record: r, seq: seq, validated: false}
			}
		}
	}
	s.mu.RUnlock()

	if rec != nil {
		return &TxResult{
			Hash:        keylet.Hex(hash),
			LedgerIndex: rec.seq,
			TxBlob:      rec.record.Blob,
			Meta:        rec.record.Meta,
			Validated:   rec.validated,
		}, nil
	}

	if s.history != nil {
		info, err := s.history.GetTransaction(ctx, keylet.Hex(hash))
		if err == nil {
			result := &TxResult{
				Hash:        info.Hash,
				LedgerIndex: info.LedgerSeq,
				TxBlob:      info.TxBlob,
				Validated:   true,
			}
			if len(info.MetaBlob) > 0 {
				var meta tx.Metadata
				if err := sle.Decode(info.MetaBlob, &meta); err == nil {
					result.Meta = &meta
				}
			}
			return result, nil
		}
		if !errors.Is(err, relationaldb.ErrTransactionNotFound) {
			return nil, err
		}
	}
	return nil, ErrTxNotFound
}

type ledgerTxLookup struct {
	record    *ledger.TxRecord
	seq       uint32
	validated bool
}

// GetTradeHistory queries executed trades from the history database.
func (s *Service) GetTradeHistory(ctx context.Context, q relationaldb.TradeQuery) ([]*relationaldb.Trade, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	return s.history.GetTrades(ctx, q)
}

// GetAccountTransactions queries an account's validated transactions
// from the history database, newest first.
func (s *Service) GetAccountTransactions(ctx context.Context, account string, limit uint32) ([]*relationaldb.TransactionInfo, error) {
	if s.history == nil {
		return nil, ErrNoHistory
	}
	if _, err := sle.DecodeAccountID(account); err != nil {
		return nil, err
	}
	return s.history.GetAccountTransactions(ctx, account, limit)
}
