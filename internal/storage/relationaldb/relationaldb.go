// Package relationaldb stores validated ledger history for queries:
// ledger headers, applied transactions, and executed trades.
package relationaldb

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDatabaseClosed      = errors.New("database connection is closed")
	ErrLedgerNotFound      = errors.New("ledger not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// LedgerInfo is a persisted ledger header.
type LedgerInfo struct {
	Sequence   uint32    `json:"sequence"`
	Hash       string    `json:"hash"`
	ParentHash string    `json:"parent_hash"`
	StateHash  string    `json:"state_hash"`
	TxHash     string    `json:"tx_hash"`
	TotalCoins uint64    `json:"total_coins"`
	CloseTime  time.Time `json:"close_time"`
	TxCount    uint32    `json:"tx_count"`
}

// TransactionInfo is a persisted transaction with its metadata.
type TransactionInfo struct {
	Hash      string `json:"hash"`
	LedgerSeq uint32 `json:"ledger_seq"`
	TxIndex   uint32 `json:"tx_index"`
	Account   string `json:"account"`
	TxType    string `json:"tx_type"`
	Result    string `json:"result"`
	TxBlob    []byte `json:"tx_blob"`
	MetaBlob  []byte `json:"meta_blob"`
}

// TradeKind distinguishes direct sales from accepted offers.
type TradeKind string

const (
	TradeSale  TradeKind = "sale"
	TradeOffer TradeKind = "offer"
)

// Trade is an executed settlement: a listing bought outright or an
// offer accepted by the seller.
type Trade struct {
	ID        int64     `json:"id"`
	Kind      TradeKind `json:"kind"`
	ListingID uint64    `json:"listing_id"`
	OfferID   uint32    `json:"offer_id"`
	AssetID   uint64    `json:"asset_id"`
	Amount    uint64    `json:"amount"`
	Price     uint64    `json:"price"`
	Seller    string    `json:"seller"`
	Buyer     string    `json:"buyer"`
	LedgerSeq uint32    `json:"ledger_seq"`
	TxHash    string    `json:"tx_hash"`
}

// TradeQuery filters trade history lookups. Zero-valued fields match
// everything.
type TradeQuery struct {
	AssetID   uint64
	HasAsset  bool
	ListingID uint64
	Account   string
	Limit     uint32
}

// Database is the history store the ledger service persists into on
// validation and the RPC layer queries.
type Database interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool

	// SaveValidatedLedger stores a ledger header with its transactions
	// and trades in one database transaction.
	SaveValidatedLedger(ctx context.Context, info *LedgerInfo, txs []*TransactionInfo, trades []*Trade) error

	GetLedgerBySeq(ctx context.Context, seq uint32) (*LedgerInfo, error)
	GetLedgerByHash(ctx context.Context, hash string) (*LedgerInfo, error)
	GetLedgerRange(ctx context.Context) (min, max uint32, err error)

	GetTransaction(ctx context.Context, hash string) (*TransactionInfo, error)
	GetAccountTransactions(ctx context.Context, account string, limit uint32) ([]*TransactionInfo, error)
	GetTransactionCount(ctx context.Context) (uint64, error)

	GetTrades(ctx context.Context, q TradeQuery) ([]*Trade, error)
	GetTradeCount(ctx context.Context) (uint64, error)
}
