package testing

import (
	"context"
	"testing"

	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/ledger/manager"
	"github.com/openxm/marketd/internal/core/ledger/service"
	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/storage/keyvalue"
	"github.com/openxm/marketd/internal/storage/relationaldb"
)

// DefaultFunding is the native coin balance genesis accounts start with.
const DefaultFunding uint64 = 1_000_000_000

// Env is a standalone ledger environment. It funds the named accounts
// at genesis alongside the market account and both issuers, and drives
// the ledger service directly.
type Env struct {
	t       *testing.T
	Service *service.Service

	// Market is the marketplace operator account.
	Market *Account

	// AssetIssuer may mint marketplace assets.
	AssetIssuer *Account

	// PaymentIssuer may mint payment tokens.
	PaymentIssuer *Account

	accounts map[string]*Account
}

// NewEnv creates an environment with the given accounts funded at
// genesis.
func NewEnv(t *testing.T, names ...string) *Env {
	t.Helper()
	return newEnv(t, nil, names...)
}

// NewEnvWithHistory creates an environment whose service indexes
// validated ledgers in the given history database.
func NewEnvWithHistory(t *testing.T, history relationaldb.Database, names ...string) *Env {
	t.Helper()
	return newEnv(t, history, names...)
}

func newEnv(t *testing.T, history relationaldb.Database, names ...string) *Env {
	t.Helper()

	env := &Env{
		t:             t,
		Market:        NewAccount("market"),
		AssetIssuer:   NewAccount("asset_issuer"),
		PaymentIssuer: NewAccount("payment_issuer"),
		accounts:      make(map[string]*Account),
	}
	env.accounts[env.Market.Name] = env.Market
	env.accounts[env.AssetIssuer.Name] = env.AssetIssuer
	env.accounts[env.PaymentIssuer.Name] = env.PaymentIssuer
	for _, name := range names {
		if _, ok := env.accounts[name]; ok {
			t.Fatalf("duplicate test account %q", name)
		}
		env.accounts[name] = NewAccount(name)
	}

	genesisCfg := genesis.Config{
		MarketAccount: env.Market.Address,
		AssetIssuer:   env.AssetIssuer.Address,
		PaymentIssuer: env.PaymentIssuer.Address,
	}
	for _, acct := range env.accounts {
		genesisCfg.Accounts = append(genesisCfg.Accounts, genesis.Account{
			Address: acct.Address,
			Balance: DefaultFunding,
		})
	}

	store := keyvalue.NewMemory()
	t.Cleanup(func() { store.Close() })
	mgr, err := manager.New(store, manager.Config{})
	if err != nil {
		t.Fatalf("failed to create ledger manager: %v", err)
	}

	svc, err := service.New(service.Config{
		Standalone: true,
		BaseFee:    10,
		Genesis:    genesisCfg,
		Manager:    mgr,
		History:    history,
	})
	if err != nil {
		t.Fatalf("failed to create ledger service: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("failed to start ledger service: %v", err)
	}
	env.Service = svc
	return env
}

// Account returns a named account created at genesis.
func (e *Env) Account(name string) *Account {
	e.t.Helper()
	acct, ok := e.accounts[name]
	if !ok {
		e.t.Fatalf("unknown test account %q", name)
	}
	return acct
}

// Submit fills in the fee and sequence, signs the transaction with the
// account's key, and applies it to the open ledger. The account's
// sequence advances when the transaction was applied.
func (e *Env) Submit(acct *Account, transaction tx.Transaction) *service.SubmitResult {
	e.t.Helper()

	common := transaction.GetCommon()
	if common.Fee == 0 {
		common.Fee = e.Service.BaseFee()
	}
	if common.Sequence == 0 {
		common.Sequence = acct.Sequence
	}
	if err := tx.Sign(transaction, acct.Keypair); err != nil {
		e.t.Fatalf("failed to sign transaction: %v", err)
	}

	result, err := e.Service.SubmitTransaction(transaction)
	if err != nil {
		e.t.Fatalf("failed to submit transaction: %v", err)
	}
	if result.Applied {
		acct.Sequence++
	}
	return result
}

// SubmitOK submits and requires tesSUCCESS.
func (e *Env) SubmitOK(acct *Account, transaction tx.Transaction) *service.SubmitResult {
	e.t.Helper()
	result := e.Submit(acct, transaction)
	if result.Result != tx.TesSUCCESS {
		e.t.Fatalf("expected tesSUCCESS, got %s: %s", result.Result, result.Message)
	}
	return result
}

// RequireResult submits and requires a specific engine result.
func (e *Env) RequireResult(acct *Account, transaction tx.Transaction, want tx.Result) *service.SubmitResult {
	e.t.Helper()
	result := e.Submit(acct, transaction)
	if result.Result != want {
		e.t.Fatalf("expected %s, got %s: %s", want, result.Result, result.Message)
	}
	return result
}

// AcceptLedger closes the open ledger and opens the next one.
func (e *Env) AcceptLedger() uint32 {
	e.t.Helper()
	seq, err := e.Service.AcceptLedger(context.Background())
	if err != nil {
		e.t.Fatalf("failed to accept ledger: %v", err)
	}
	return seq
}

// MintAsset mints semi-fungible asset units to an account.
func (e *Env) MintAsset(dest *Account, assetID, amount uint64) {
	e.t.Helper()
	mint := tx.NewAssetMint(e.AssetIssuer.Address, assetID, amount)
	mint.Destination = dest.Address
	e.SubmitOK(e.AssetIssuer, mint)
}

// MintPayment mints payment tokens to an account.
func (e *Env) MintPayment(dest *Account, amount uint64) {
	e.t.Helper()
	mint := tx.NewPaymentMint(e.PaymentIssuer.Address, amount)
	mint.Destination = dest.Address
	e.SubmitOK(e.PaymentIssuer, mint)
}

// SetupSeller performs the usual pre-listing setup: the seller delegates
// its asset ledger to the market account and then consents to the
// marketplace.
func (e *Env) SetupSeller(acct *Account) {
	e.t.Helper()
	e.SubmitOK(acct, tx.NewAssetApprove(acct.Address, e.Market.Address, true))
	e.SubmitOK(acct, tx.NewMarketApproveAsset(acct.Address, true))
}

// SetupOfferer performs the usual pre-offer setup: the offerer grants
// the market account a spending allowance and then consents to
// marketplace payments.
func (e *Env) SetupOfferer(acct *Account, allowance uint64) {
	e.t.Helper()
	e.SubmitOK(acct, tx.NewPaymentApprove(acct.Address, e.Market.Address, allowance))
	e.SubmitOK(acct, tx.NewMarketApprovePayment(acct.Address, true))
}

// AssetBalance reads an asset balance from the open ledger.
func (e *Env) AssetBalance(acct *Account, assetID uint64) uint64 {
	e.t.Helper()
	result, err := e.Service.GetAssetBalance(acct.Address, assetID, "current")
	if err != nil {
		e.t.Fatalf("failed to read asset balance: %v", err)
	}
	return result.Balance
}

// PaymentBalance reads a payment token balance from the open ledger.
func (e *Env) PaymentBalance(acct *Account) uint64 {
	e.t.Helper()
	result, err := e.Service.GetPaymentBalance(acct.Address, "current")
	if err != nil {
		e.t.Fatalf("failed to read payment balance: %v", err)
	}
	return result.Balance
}

// PaymentAllowance reads the allowance an account has granted the
// market account.
func (e *Env) PaymentAllowance(acct *Account) uint64 {
	e.t.Helper()
	result, err := e.Service.GetPaymentAllowance(acct.Address, e.Market.Address, "current")
	if err != nil {
		e.t.Fatalf("failed to read payment allowance: %v", err)
	}
	return result.Amount
}

// CoinBalance reads an account's native coin balance from the open
// ledger.
func (e *Env) CoinBalance(acct *Account) uint64 {
	e.t.Helper()
	info, err := e.Service.GetAccountInfo(acct.Address, "current")
	if err != nil {
		e.t.Fatalf("failed to read account info: %v", err)
	}
	return info.Balance
}

// Listing reads a listing from the open ledger.
func (e *Env) Listing(listingID uint64) *sle.Listing {
	e.t.Helper()
	result, err := e.Service.GetListing(listingID, "current")
	if err != nil {
		e.t.Fatalf("failed to read listing %d: %v", listingID, err)
	}
	return result.Listing
}

// Offer reads an offer from the open ledger.
func (e *Env) Offer(listingID uint64, offerID uint32) *sle.Offer {
	e.t.Helper()
	result, err := e.Service.GetOffer(listingID, offerID, "current")
	if err != nil {
		e.t.Fatalf("failed to read offer %d/%d: %v", listingID, offerID, err)
	}
	return result.Offer
}

// MarketState reads the market state entry from the open ledger.
func (e *Env) MarketState() *sle.MarketState {
	e.t.Helper()
	state, _, err := e.Service.GetMarketInfo("current")
	if err != nil {
		e.t.Fatalf("failed to read market state: %v", err)
	}
	return state
}
