package tx_test

import (
	"testing"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/tx"
	mtest "github.com/openxm/marketd/internal/testing"
	"github.com/stretchr/testify/require"
)

// newEngineView builds an open ledger seeded with the given funded
// accounts and an engine over it that verifies signatures.
func newEngineView(t *testing.T, accounts ...*mtest.Account) (*ledger.Ledger, *tx.Engine) {
	t.Helper()

	market := mtest.NewAccount("market")
	assetIssuer := mtest.NewAccount("asset_issuer")
	paymentIssuer := mtest.NewAccount("payment_issuer")

	cfg := genesis.Config{
		MarketAccount: market.Address,
		AssetIssuer:   assetIssuer.Address,
		PaymentIssuer: paymentIssuer.Address,
	}
	for _, acct := range accounts {
		cfg.Accounts = append(cfg.Accounts, genesis.Account{
			Address: acct.Address,
			Balance: 1_000_000,
		})
	}
	genesisLedger, err := genesis.Create(cfg)
	require.NoError(t, err)

	open, err := ledger.NewOpen(genesisLedger)
	require.NoError(t, err)

	engine := tx.NewEngine(open, tx.EngineConfig{
		BaseFee:        10,
		LedgerSequence: open.Sequence(),
	})
	return open, engine
}

func signedPayment(t *testing.T, from, to *mtest.Account, amount uint64, sequence uint32) *tx.Payment {
	t.Helper()
	p := tx.NewPayment(from.Address, to.Address, amount)
	p.Fee = 10
	p.Sequence = sequence
	require.NoError(t, tx.Sign(p, from.Keypair))
	return p
}

func TestEngineAppliesSignedPayment(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	result := engine.Apply(signedPayment(t, alice, bob, 1_000, 1))
	require.Equal(t, tx.TesSUCCESS, result.Result)
	require.True(t, result.Applied)
	require.Equal(t, uint64(10), result.Fee)
}

func TestEngineRejectsUnsignedTransaction(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	p := tx.NewPayment(alice.Address, bob.Address, 1_000)
	p.Fee = 10
	p.Sequence = 1

	result := engine.Apply(p)
	require.Equal(t, tx.TemBAD_SIGNATURE, result.Result)
	require.False(t, result.Applied)
}

func TestEngineRejectsWrongSigner(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	// Signed by bob's key over alice's account.
	p := tx.NewPayment(alice.Address, bob.Address, 1_000)
	p.Fee = 10
	p.Sequence = 1
	require.NoError(t, tx.Sign(p, bob.Keypair))

	result := engine.Apply(p)
	require.Equal(t, tx.TemBAD_SIGNATURE, result.Result)
}

func TestEngineRejectsTamperedTransaction(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	p := signedPayment(t, alice, bob, 1_000, 1)
	p.Amount = 900_000

	result := engine.Apply(p)
	require.Equal(t, tx.TemBAD_SIGNATURE, result.Result)
}

func TestEngineSequenceEnforcement(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	// Future sequence is held, not applied.
	result := engine.Apply(signedPayment(t, alice, bob, 100, 5))
	require.Equal(t, tx.TerPRE_SEQ, result.Result)
	require.False(t, result.Applied)

	// Zero sequence never passes preflight.
	p := tx.NewPayment(alice.Address, bob.Address, 100)
	p.Fee = 10
	require.NoError(t, tx.Sign(p, alice.Keypair))
	result = engine.Apply(p)
	require.Equal(t, tx.TemBAD_SEQUENCE, result.Result)

	// The correct sequence applies and consumes.
	result = engine.Apply(signedPayment(t, alice, bob, 100, 1))
	require.Equal(t, tx.TesSUCCESS, result.Result)

	// Replay of the same sequence is rejected.
	result = engine.Apply(signedPayment(t, alice, bob, 100, 1))
	require.Equal(t, tx.TefPAST_SEQ, result.Result)
	require.False(t, result.Applied)
}

func TestEngineUnknownAccount(t *testing.T) {
	alice := mtest.NewAccount("alice")
	stranger := mtest.NewAccount("stranger")
	_, engine := newEngineView(t, alice)

	result := engine.Apply(signedPayment(t, stranger, alice, 100, 1))
	require.Equal(t, tx.TerNO_ACCOUNT, result.Result)
}

func TestEngineFeeValidation(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	p := tx.NewPayment(alice.Address, bob.Address, 100)
	p.Fee = tx.DefaultMaxFee + 1
	p.Sequence = 1
	require.NoError(t, tx.Sign(p, alice.Keypair))

	result := engine.Apply(p)
	require.Equal(t, tx.TemBAD_FEE, result.Result)

	// A fee below the base fee is rejected against the ledger.
	p = tx.NewPayment(alice.Address, bob.Address, 100)
	p.Fee = 5
	p.Sequence = 1
	require.NoError(t, tx.Sign(p, alice.Keypair))

	result = engine.Apply(p)
	require.Equal(t, tx.TelINSUF_FEE_P, result.Result)
}

func TestEngineFeeDestroyedOnApply(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	open, engine := newEngineView(t, alice, bob)

	before := open.TotalCoins()
	result := engine.Apply(signedPayment(t, alice, bob, 1_000, 1))
	require.True(t, result.Applied)
	require.Equal(t, before-result.Fee, open.TotalCoins())
}

func TestEngineTecClaimsFeeOnly(t *testing.T) {
	alice := mtest.NewAccount("alice")
	bob := mtest.NewAccount("bob")
	_, engine := newEngineView(t, alice, bob)

	// Payment larger than the balance fails with a tec after fee and
	// sequence are consumed.
	result := engine.Apply(signedPayment(t, alice, bob, 2_000_000, 1))
	require.Equal(t, tx.TecUNFUNDED_PAYMENT, result.Result)
	require.True(t, result.Applied)
	require.Nil(t, result.Metadata.Events)

	// The sequence was consumed, so the next attempt needs sequence 2.
	result = engine.Apply(signedPayment(t, alice, bob, 100, 1))
	require.Equal(t, tx.TefPAST_SEQ, result.Result)

	result = engine.Apply(signedPayment(t, alice, bob, 100, 2))
	require.Equal(t, tx.TesSUCCESS, result.Result)
}

func TestEnginePaymentCreatesAccount(t *testing.T) {
	alice := mtest.NewAccount("alice")
	fresh := mtest.NewAccount("fresh")
	open, engine := newEngineView(t, alice)

	result := engine.Apply(signedPayment(t, alice, fresh, 5_000, 1))
	require.Equal(t, tx.TesSUCCESS, result.Result)

	// The funded address can now transact.
	engine2 := tx.NewEngine(open, tx.EngineConfig{BaseFee: 10, LedgerSequence: open.Sequence()})
	result = engine2.Apply(signedPayment(t, fresh, alice, 1_000, 1))
	require.Equal(t, tx.TesSUCCESS, result.Result)
}
