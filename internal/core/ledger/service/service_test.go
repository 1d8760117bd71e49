package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/ledger/service"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/storage/relationaldb"
	"github.com/openxm/marketd/internal/storage/relationaldb/sqlite"
	mtest "github.com/openxm/marketd/internal/testing"
)

func TestStartOpensLedgerTwo(t *testing.T) {
	env := mtest.NewEnv(t, "alice")

	info := env.Service.GetServerInfo()
	require.True(t, info.Standalone)
	require.Equal(t, uint64(10), info.BaseFee)
	require.Equal(t, uint32(2), info.OpenLedgerSeq)
	require.Equal(t, uint32(1), info.ClosedLedgerSeq)
	require.Equal(t, uint32(1), info.ValidatedLedgerSeq)
	require.Equal(t, "1", info.CompleteLedgers)
	require.NotEqual(t, [32]byte{}, info.ClosedLedgerHash)
	require.Equal(t, info.ClosedLedgerHash, info.ValidatedLedgerHash)

	require.Equal(t, uint32(2), env.Service.GetCurrentLedgerIndex())
	require.Equal(t, uint32(1), env.Service.GetValidatedLedgerIndex())
}

func TestAcceptLedgerAdvancesChain(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")

	env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 1_000))

	seq, err := env.Service.AcceptLedger(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(2), seq)

	info := env.Service.GetServerInfo()
	require.Equal(t, uint32(3), info.OpenLedgerSeq)
	require.Equal(t, uint32(2), info.ValidatedLedgerSeq)
	require.Equal(t, "1-2", info.CompleteLedgers)

	closed := env.Service.GetClosedLedger()
	require.True(t, closed.IsValidated())
	require.Len(t, closed.Transactions(), 1)

	// The fee was destroyed when the payment applied.
	genesis, err := env.Service.GetLedgerBySequence(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, genesis.TotalCoins()-10, closed.TotalCoins())
}

func TestAcceptLedgerLinksParents(t *testing.T) {
	env := mtest.NewEnv(t)
	ctx := context.Background()

	env.AcceptLedger()
	env.AcceptLedger()

	l1, err := env.Service.GetLedgerBySequence(ctx, 1)
	require.NoError(t, err)
	l2, err := env.Service.GetLedgerBySequence(ctx, 2)
	require.NoError(t, err)
	l3, err := env.Service.GetLedgerBySequence(ctx, 3)
	require.NoError(t, err)

	require.Equal(t, l1.Hash(), l2.Header().ParentHash)
	require.Equal(t, l2.Hash(), l3.Header().ParentHash)

	byHash, err := env.Service.GetLedgerByHash(ctx, l2.Hash())
	require.NoError(t, err)
	require.Equal(t, uint32(2), byHash.Sequence())
}

func TestGetLedgerInfoSelectors(t *testing.T) {
	env := mtest.NewEnv(t, "alice")
	env.AcceptLedger()

	current, err := env.Service.GetLedgerInfo("current")
	require.NoError(t, err)
	require.Equal(t, uint32(3), current.Sequence)
	require.False(t, current.Closed)
	require.False(t, current.Validated)

	validated, err := env.Service.GetLedgerInfo("validated")
	require.NoError(t, err)
	require.Equal(t, uint32(2), validated.Sequence)
	require.True(t, validated.Closed)
	require.True(t, validated.Validated)

	closed, err := env.Service.GetLedgerInfo("closed")
	require.NoError(t, err)
	require.Equal(t, validated.Hash, closed.Hash)

	byNumber, err := env.Service.GetLedgerInfo("1")
	require.NoError(t, err)
	require.Equal(t, uint32(1), byNumber.Sequence)
	require.True(t, byNumber.Validated)

	_, err = env.Service.GetLedgerInfo("99")
	require.ErrorIs(t, err, service.ErrLedgerNotFound)

	_, err = env.Service.GetLedgerInfo("bogus")
	require.Error(t, err)
}

func TestSubmitTransactionIndexesByHash(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	ctx := context.Background()

	res := env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 500))
	require.NotEqual(t, [32]byte{}, res.Hash)

	got, err := env.Service.GetTransaction(ctx, res.Hash)
	require.NoError(t, err)
	require.Equal(t, keylet.Hex(res.Hash), got.Hash)
	require.Equal(t, uint32(2), got.LedgerIndex)
	require.False(t, got.Validated)
	require.NotNil(t, got.Meta)
	require.Equal(t, tx.TesSUCCESS, got.Meta.TransactionResult)

	env.AcceptLedger()

	got, err = env.Service.GetTransaction(ctx, res.Hash)
	require.NoError(t, err)
	require.True(t, got.Validated)

	_, err = env.Service.GetTransaction(ctx, [32]byte{0xEE})
	require.ErrorIs(t, err, service.ErrTxNotFound)
}

func TestSubmitRejectedTransactionNotRecorded(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")

	payment := tx.NewPayment(alice.Address, bob.Address, 100)
	payment.Fee = 5 // below the base fee
	payment.Sequence = alice.Sequence
	res := env.Submit(alice, payment)
	require.Equal(t, tx.TelINSUF_FEE_P, res.Result)
	require.False(t, res.Applied)

	require.Empty(t, env.Service.GetOpenLedger().Transactions())
}

func TestEventHooksFireOnAccept(t *testing.T) {
	env := mtest.NewEnv(t, "alice")
	alice := env.Account("alice")

	closedCh := make(chan service.LedgerClosedEvent, 1)
	txCh := make(chan service.TransactionEvent, 4)
	marketCh := make(chan service.MarketEvent, 4)
	env.Service.SetEventHooks(&service.EventHooks{
		OnLedgerClosed: func(ev service.LedgerClosedEvent) { closedCh <- ev },
		OnTransaction:  func(ev service.TransactionEvent) { txCh <- ev },
		OnMarketEvent:  func(ev service.MarketEvent) { marketCh <- ev },
	})

	env.MintAsset(alice, 1, 100)
	env.SetupSeller(alice)
	res := env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 1, 40, 500))
	seq := env.AcceptLedger()

	select {
	case ev := <-closedCh:
		require.Equal(t, seq, ev.Sequence)
		require.Equal(t, 4, ev.TxCount)
		require.NotEqual(t, [32]byte{}, ev.Hash)
	case <-time.After(2 * time.Second):
		t.Fatal("no ledger closed event")
	}

	deadline := time.After(2 * time.Second)
	seen := map[[32]byte]bool{}
	for len(seen) < 4 {
		select {
		case ev := <-txCh:
			require.Equal(t, seq, ev.LedgerSeq)
			require.Equal(t, "tesSUCCESS", ev.Result)
			seen[ev.Hash] = true
		case <-deadline:
			t.Fatalf("saw %d transaction events, want 4", len(seen))
		}
	}

	select {
	case ev := <-marketCh:
		require.Equal(t, tx.EventSaleCreated, ev.Name)
		require.Equal(t, res.Hash, ev.TxHash)
		require.Equal(t, seq, ev.LedgerSeq)
	case <-time.After(2 * time.Second):
		t.Fatal("no market event")
	}
}

func newHistoryEnv(t *testing.T, names ...string) (*mtest.Env, *sqlite.Database) {
	t.Helper()
	db := sqlite.NewDatabase(":memory:")
	require.NoError(t, db.Open(context.Background()))
	t.Cleanup(func() { db.Close(context.Background()) })
	return mtest.NewEnvWithHistory(t, db, names...), db
}

func TestHistoryRecordsValidatedLedgers(t *testing.T) {
	env, db := newHistoryEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	ctx := context.Background()

	res := env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 250))
	env.AcceptLedger()

	minSeq, maxSeq, err := db.GetLedgerRange(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), minSeq)
	require.Equal(t, uint32(2), maxSeq)

	info, err := db.GetLedgerBySeq(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(1), info.TxCount)

	row, err := db.GetTransaction(ctx, keylet.Hex(res.Hash))
	require.NoError(t, err)
	require.Equal(t, alice.Address, row.Account)
	require.Equal(t, "Payment", row.TxType)
	require.Equal(t, "tesSUCCESS", row.Result)
	require.NotEmpty(t, row.TxBlob)
	require.NotEmpty(t, row.MetaBlob)
}

func TestGetTransactionFallsBackToHistory(t *testing.T) {
	env, db := newHistoryEnv(t)
	ctx := context.Background()

	// A row the service has no in-memory record of.
	var hash [32]byte
	hash[0] = 0xAB
	err := db.SaveValidatedLedger(ctx, &relationaldb.LedgerInfo{
		Sequence: 50,
		Hash:     keylet.Hex([32]byte{0x50}),
	}, []*relationaldb.TransactionInfo{{
		Hash:      keylet.Hex(hash),
		LedgerSeq: 50,
		Account:   env.Market.Address,
		TxType:    "Payment",
		Result:    "tesSUCCESS",
		TxBlob:    []byte{0x01},
	}}, nil)
	require.NoError(t, err)

	got, err := env.Service.GetTransaction(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, uint32(50), got.LedgerIndex)
	require.True(t, got.Validated)
	require.Equal(t, []byte{0x01}, got.TxBlob)
}

func TestTradeHistoryFromSaleAndOffer(t *testing.T) {
	env, _ := newHistoryEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	ctx := context.Background()

	env.MintAsset(alice, 7, 100)
	env.SetupSeller(alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 5_000)

	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 7, 40, 500))
	buyRes := env.SubmitOK(bob, tx.NewTokenBuy(bob.Address, 1, 500))

	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 7, 10, 900))
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 2, 800))
	acceptRes := env.SubmitOK(alice, tx.NewOfferAccept(alice.Address, 2, 1))

	env.AcceptLedger()

	trades, err := env.Service.GetTradeHistory(ctx, relationaldb.TradeQuery{})
	require.NoError(t, err)
	require.Len(t, trades, 2)

	var sale, offer *relationaldb.Trade
	for _, tr := range trades {
		switch tr.Kind {
		case relationaldb.TradeSale:
			sale = tr
		case relationaldb.TradeOffer:
			offer = tr
		}
	}
	require.NotNil(t, sale)
	require.Equal(t, uint64(1), sale.ListingID)
	require.Equal(t, uint64(7), sale.AssetID)
	require.Equal(t, uint64(40), sale.Amount)
	require.Equal(t, uint64(500), sale.Price)
	require.Equal(t, alice.Address, sale.Seller)
	require.Equal(t, bob.Address, sale.Buyer)
	require.Equal(t, keylet.Hex(buyRes.Hash), sale.TxHash)

	require.NotNil(t, offer)
	require.Equal(t, uint64(2), offer.ListingID)
	require.Equal(t, uint32(1), offer.OfferID)
	require.Equal(t, uint64(10), offer.Amount)
	require.Equal(t, uint64(800), offer.Price)
	require.Equal(t, keylet.Hex(acceptRes.Hash), offer.TxHash)

	// Filtered lookups.
	byListing, err := env.Service.GetTradeHistory(ctx, relationaldb.TradeQuery{ListingID: 2})
	require.NoError(t, err)
	require.Len(t, byListing, 1)
	require.Equal(t, relationaldb.TradeOffer, byListing[0].Kind)

	byAccount, err := env.Service.GetTradeHistory(ctx, relationaldb.TradeQuery{Account: bob.Address})
	require.NoError(t, err)
	require.Len(t, byAccount, 2)
}

func TestAccountTransactionsFromHistory(t *testing.T) {
	env, _ := newHistoryEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	ctx := context.Background()

	env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 100))
	env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 200))
	env.AcceptLedger()
	env.SubmitOK(alice, tx.NewPayment(alice.Address, bob.Address, 300))
	env.AcceptLedger()

	rows, err := env.Service.GetAccountTransactions(ctx, alice.Address, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Newest first.
	require.Equal(t, uint32(3), rows[0].LedgerSeq)
	require.Equal(t, uint32(2), rows[2].LedgerSeq)

	limited, err := env.Service.GetAccountTransactions(ctx, alice.Address, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = env.Service.GetAccountTransactions(ctx, "not-an-address", 10)
	require.Error(t, err)
}

func TestHistoryErrorsWithoutDatabase(t *testing.T) {
	env := mtest.NewEnv(t)
	ctx := context.Background()

	_, err := env.Service.GetTradeHistory(ctx, relationaldb.TradeQuery{})
	require.ErrorIs(t, err, service.ErrNoHistory)

	_, err = env.Service.GetAccountTransactions(ctx, env.Market.Address, 10)
	require.ErrorIs(t, err, service.ErrNoHistory)
}
