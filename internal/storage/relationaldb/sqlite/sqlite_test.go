package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openxm/marketd/internal/storage/relationaldb"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase(":memory:")
	require.NoError(t, db.Open(context.Background()))
	t.Cleanup(func() { db.Close(context.Background()) })
	return db
}

func ledgerFixture(seq uint32) *relationaldb.LedgerInfo {
	return &relationaldb.LedgerInfo{
		Sequence:   seq,
		Hash:       fmt.Sprintf("%064X", seq),
		ParentHash: fmt.Sprintf("%064X", seq-1),
		StateHash:  "AA",
		TxHash:     "BB",
		TotalCoins: 1_000_000,
		CloseTime:  time.Unix(1_700_000_000+int64(seq), 0).UTC(),
		TxCount:    0,
	}
}

func txFixture(hash string, seq, index uint32, account string) *relationaldb.TransactionInfo {
	return &relationaldb.TransactionInfo{
		Hash:      hash,
		LedgerSeq: seq,
		TxIndex:   index,
		Account:   account,
		TxType:    "Payment",
		Result:    "tesSUCCESS",
		TxBlob:    []byte{0x01, 0x02},
		MetaBlob:  []byte{0x03},
	}
}

func TestOpenAndClose(t *testing.T) {
	db := NewDatabase(filepath.Join(t.TempDir(), "history.db"))
	require.False(t, db.IsOpen())

	ctx := context.Background()
	require.NoError(t, db.Open(ctx))
	require.True(t, db.IsOpen())

	require.NoError(t, db.Close(ctx))
	require.False(t, db.IsOpen())

	_, err := db.GetLedgerBySeq(ctx, 1)
	require.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
	err = db.SaveValidatedLedger(ctx, ledgerFixture(1), nil, nil)
	require.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
}

func TestSaveAndGetLedger(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := ledgerFixture(5)
	want.TxCount = 3
	require.NoError(t, db.SaveValidatedLedger(ctx, want, nil, nil))

	got, err := db.GetLedgerBySeq(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, want.Hash, got.Hash)
	require.Equal(t, want.ParentHash, got.ParentHash)
	require.Equal(t, want.TotalCoins, got.TotalCoins)
	require.Equal(t, want.CloseTime, got.CloseTime)
	require.Equal(t, uint32(3), got.TxCount)

	byHash, err := db.GetLedgerByHash(ctx, want.Hash)
	require.NoError(t, err)
	require.Equal(t, uint32(5), byHash.Sequence)

	_, err = db.GetLedgerBySeq(ctx, 6)
	require.ErrorIs(t, err, relationaldb.ErrLedgerNotFound)
	_, err = db.GetLedgerByHash(ctx, "missing")
	require.ErrorIs(t, err, relationaldb.ErrLedgerNotFound)
}

func TestSaveIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	info := ledgerFixture(2)
	txs := []*relationaldb.TransactionInfo{txFixture("T1", 2, 0, "rAlice")}
	require.NoError(t, db.SaveValidatedLedger(ctx, info, txs, nil))
	require.NoError(t, db.SaveValidatedLedger(ctx, info, txs, nil))

	count, err := db.GetTransactionCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

func TestGetLedgerRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, _, err := db.GetLedgerRange(ctx)
	require.ErrorIs(t, err, relationaldb.ErrLedgerNotFound)

	for seq := uint32(3); seq <= 7; seq++ {
		require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(seq), nil, nil))
	}

	min, max, err := db.GetLedgerRange(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(3), min)
	require.Equal(t, uint32(7), max)
}

func TestGetTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	want := txFixture("DEADBEEF", 2, 1, "rAlice")
	require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(2),
		[]*relationaldb.TransactionInfo{want}, nil))

	got, err := db.GetTransaction(ctx, "DEADBEEF")
	require.NoError(t, err)
	require.Equal(t, want.Account, got.Account)
	require.Equal(t, want.TxType, got.TxType)
	require.Equal(t, want.Result, got.Result)
	require.Equal(t, want.TxBlob, got.TxBlob)
	require.Equal(t, want.MetaBlob, got.MetaBlob)
	require.Equal(t, uint32(1), got.TxIndex)

	_, err = db.GetTransaction(ctx, "FEEDFACE")
	require.ErrorIs(t, err, relationaldb.ErrTransactionNotFound)
}

func TestGetAccountTransactionsOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(2), []*relationaldb.TransactionInfo{
		txFixture("A1", 2, 0, "rAlice"),
		txFixture("A2", 2, 1, "rAlice"),
		txFixture("B1", 2, 2, "rBob"),
	}, nil))
	require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(3), []*relationaldb.TransactionInfo{
		txFixture("A3", 3, 0, "rAlice"),
	}, nil))

	rows, err := db.GetAccountTransactions(ctx, "rAlice", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "A3", rows[0].Hash)
	require.Equal(t, "A2", rows[1].Hash)
	require.Equal(t, "A1", rows[2].Hash)

	limited, err := db.GetAccountTransactions(ctx, "rAlice", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "A3", limited[0].Hash)

	none, err := db.GetAccountTransactions(ctx, "rCarol", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestTradeQueries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	trades := []*relationaldb.Trade{
		{Kind: relationaldb.TradeSale, ListingID: 1, AssetID: 7, Amount: 40, Price: 500,
			Seller: "rAlice", Buyer: "rBob", LedgerSeq: 2, TxHash: "T1"},
		{Kind: relationaldb.TradeOffer, ListingID: 2, OfferID: 1, AssetID: 7, Amount: 10, Price: 800,
			Seller: "rAlice", Buyer: "rCarol", LedgerSeq: 2, TxHash: "T2"},
		{Kind: relationaldb.TradeSale, ListingID: 3, AssetID: 9, Amount: 5, Price: 50,
			Seller: "rBob", Buyer: "rCarol", LedgerSeq: 2, TxHash: "T3"},
	}
	require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(2), nil, trades))

	all, err := db.GetTrades(ctx, relationaldb.TradeQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "T3", all[0].TxHash)
	require.Equal(t, "T1", all[2].TxHash)

	byAsset, err := db.GetTrades(ctx, relationaldb.TradeQuery{AssetID: 7, HasAsset: true})
	require.NoError(t, err)
	require.Len(t, byAsset, 2)

	byListing, err := db.GetTrades(ctx, relationaldb.TradeQuery{ListingID: 2})
	require.NoError(t, err)
	require.Len(t, byListing, 1)
	require.Equal(t, relationaldb.TradeOffer, byListing[0].Kind)
	require.Equal(t, uint32(1), byListing[0].OfferID)

	// Account filter matches both sides of the trade.
	byAccount, err := db.GetTrades(ctx, relationaldb.TradeQuery{Account: "rBob"})
	require.NoError(t, err)
	require.Len(t, byAccount, 2)

	limited, err := db.GetTrades(ctx, relationaldb.TradeQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	count, err := db.GetTradeCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	db := NewDatabase(path)
	require.NoError(t, db.Open(ctx))
	require.NoError(t, db.SaveValidatedLedger(ctx, ledgerFixture(1),
		[]*relationaldb.TransactionInfo{txFixture("T1", 1, 0, "rAlice")}, nil))
	require.NoError(t, db.Close(ctx))

	reopened := NewDatabase(path)
	require.NoError(t, reopened.Open(ctx))
	defer reopened.Close(ctx)

	got, err := reopened.GetTransaction(ctx, "T1")
	require.NoError(t, err)
	require.Equal(t, "rAlice", got.Account)
}
