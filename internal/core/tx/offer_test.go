package tx_test

import (
	"testing"

	"github.com/openxm/marketd/internal/core/tx"
	"github.com/openxm/marketd/internal/core/tx/sle"
	mtest "github.com/openxm/marketd/internal/testing"
	"github.com/stretchr/testify/require"
)

// listForSale puts a standard listing on the books: alice sells 40
// units of asset 1 at price 500.
func listForSale(t *testing.T, env *mtest.Env, seller *mtest.Account) {
	t.Helper()
	env.MintAsset(seller, 1, 100)
	env.SetupSeller(seller)
	env.SubmitOK(seller, tx.NewSaleCreate(seller.Address, 1, 40, 500))
}

func TestOfferFullFlow(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)

	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)

	result := env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))
	require.Len(t, result.Metadata.Events, 1)
	require.Equal(t, tx.EventOfferCreated, result.Metadata.Events[0].Name)

	offer := env.Offer(1, 1)
	require.Equal(t, bob.Address, offer.Offerer)
	require.Equal(t, uint64(800), offer.Price)
	require.Equal(t, sle.OfferActive, offer.Status)
	require.Equal(t, uint32(1), env.Listing(1).NumOffers)

	result = env.SubmitOK(alice, tx.NewOfferAccept(alice.Address, 1, 1))
	require.Len(t, result.Metadata.Events, 1)
	require.Equal(t, tx.EventOfferAccepted, result.Metadata.Events[0].Name)

	// Payment leg settled through the marketplace allowance.
	require.Equal(t, uint64(9_200), env.PaymentBalance(bob))
	require.Equal(t, uint64(800), env.PaymentBalance(alice))

	// Asset leg settled seller to offerer.
	require.Equal(t, uint64(60), env.AssetBalance(alice, 1))
	require.Equal(t, uint64(40), env.AssetBalance(bob, 1))

	require.Equal(t, sle.OfferAccepted, env.Offer(1, 1).Status)
	require.Equal(t, sle.ListingSold, env.Listing(1).Status)
}

func TestOfferAcceptSelfDealConservesValue(t *testing.T) {
	env := mtest.NewEnv(t, "alice")
	alice := env.Account("alice")
	env.MintAsset(alice, 1, 100)
	env.MintPayment(alice, 10_000)
	env.SetupSeller(alice)
	env.SetupOfferer(alice, 2_000)
	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 1, 40, 500))
	env.SubmitOK(alice, tx.NewOfferCreate(alice.Address, 1, 800))

	// Accepting one's own offer settles both legs onto the same account;
	// neither balance may change, only the allowance is consumed.
	env.SubmitOK(alice, tx.NewOfferAccept(alice.Address, 1, 1))

	require.Equal(t, sle.OfferAccepted, env.Offer(1, 1).Status)
	require.Equal(t, sle.ListingSold, env.Listing(1).Status)
	require.Equal(t, uint64(100), env.AssetBalance(alice, 1))
	require.Equal(t, uint64(10_000), env.PaymentBalance(alice))
	require.Equal(t, uint64(1_200), env.PaymentAllowance(alice))
}

func TestOfferCreatePreconditions(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)

	// No payment consent flag.
	env.RequireResult(bob, tx.NewOfferCreate(bob.Address, 1, 800), tx.TecNO_PAYMENT_ALLOWANCE)

	// Consent cannot be given before a marketplace allowance exists.
	env.RequireResult(bob, tx.NewMarketApprovePayment(bob.Address, true), tx.TecNO_PAYMENT_FLAG)

	// Allowance granted and consent given, but no payment tokens behind
	// them.
	env.SubmitOK(bob, tx.NewPaymentApprove(bob.Address, env.Market.Address, 2_000))
	env.SubmitOK(bob, tx.NewMarketApprovePayment(bob.Address, true))
	env.RequireResult(bob, tx.NewOfferCreate(bob.Address, 1, 800), tx.TecOFFERER_UNFUNDED)

	env.MintPayment(bob, 10_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))
}

func TestOfferCreateOnInactiveListing(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)

	env.SubmitOK(alice, tx.NewSaleCancel(alice.Address, 1))
	env.RequireResult(bob, tx.NewOfferCreate(bob.Address, 1, 800), tx.TecLISTING_NOT_ACTIVE)

	env.RequireResult(bob, tx.NewOfferCreate(bob.Address, 42, 800), tx.TecNO_ENTRY)
}

func TestOfferCancel(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob", "carol")
	alice := env.Account("alice")
	bob := env.Account("bob")
	carol := env.Account("carol")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	env.RequireResult(carol, tx.NewOfferCancel(carol.Address, 1, 1), tx.TecNOT_OFFERER)

	env.SubmitOK(bob, tx.NewOfferCancel(bob.Address, 1, 1))
	require.Equal(t, sle.OfferCancelled, env.Offer(1, 1).Status)

	env.RequireResult(bob, tx.NewOfferCancel(bob.Address, 1, 1), tx.TecOFFER_NOT_ACTIVE)
	env.RequireResult(bob, tx.NewOfferUpdate(bob.Address, 1, 1, 900), tx.TecOFFER_NOT_ACTIVE)

	// A cancelled offer cannot settle.
	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 1), tx.TecOFFER_INACTIVE)
}

func TestOfferUpdate(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob", "carol")
	alice := env.Account("alice")
	bob := env.Account("bob")
	carol := env.Account("carol")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	env.RequireResult(carol, tx.NewOfferUpdate(carol.Address, 1, 1, 900), tx.TecNOT_OFFERER)

	env.SubmitOK(bob, tx.NewOfferUpdate(bob.Address, 1, 1, 900))
	require.Equal(t, uint64(900), env.Offer(1, 1).Price)
}

func TestOfferAcceptOnlySeller(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	env.RequireResult(bob, tx.NewOfferAccept(bob.Address, 1, 1), tx.TecNOT_SELLER)
	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 7), tx.TecNO_TARGET)
}

func TestOfferAcceptAllowanceShort(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	// The offerer shrinks the marketplace allowance below the offer
	// price before the seller accepts.
	env.SubmitOK(bob, tx.NewPaymentApprove(bob.Address, env.Market.Address, 100))

	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 1), tx.TecALLOWANCE_SHORT)

	// Settlement rolled back whole: statuses and balances untouched.
	require.Equal(t, sle.OfferActive, env.Offer(1, 1).Status)
	require.Equal(t, sle.ListingActive, env.Listing(1).Status)
	require.Equal(t, uint64(10_000), env.PaymentBalance(bob))
	require.Equal(t, uint64(100), env.PaymentAllowance(bob))
}

func TestOfferAcceptOffererDivested(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob", "carol")
	alice := env.Account("alice")
	bob := env.Account("bob")
	carol := env.Account("carol")
	listForSale(t, env, alice)

	// Carol lists too, so bob's funds can drain between offer and
	// acceptance.
	env.MintAsset(carol, 2, 50)
	env.SetupSeller(carol)
	env.SubmitOK(carol, tx.NewSaleCreate(carol.Address, 2, 50, 700))

	env.MintPayment(bob, 1_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 2, 700))

	// Carol accepts first, draining bob to 300.
	env.SubmitOK(carol, tx.NewOfferAccept(carol.Address, 2, 1))
	require.Equal(t, uint64(300), env.PaymentBalance(bob))

	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 1), tx.TecOFFERER_DIVESTED)
	require.Equal(t, sle.OfferActive, env.Offer(1, 1).Status)
	require.Equal(t, sle.ListingActive, env.Listing(1).Status)
}

func TestOfferAcceptApprovalRevoked(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	listForSale(t, env, alice)
	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))

	env.SubmitOK(alice, tx.NewAssetApprove(alice.Address, env.Market.Address, false))

	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 1), tx.TecAPPROVAL_REVOKED)
	require.Equal(t, sle.OfferActive, env.Offer(1, 1).Status)
	require.Equal(t, uint64(10_000), env.PaymentBalance(bob))
}

func TestOfferAcceptLeavesSiblingOffersActive(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob", "carol")
	alice := env.Account("alice")
	bob := env.Account("bob")
	carol := env.Account("carol")
	listForSale(t, env, alice)

	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 2_000)
	env.MintPayment(carol, 10_000)
	env.SetupOfferer(carol, 2_000)

	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 800))
	env.SubmitOK(carol, tx.NewOfferCreate(carol.Address, 1, 900))

	env.SubmitOK(alice, tx.NewOfferAccept(alice.Address, 1, 2))

	// Bob's offer stays active on the now-sold listing; it can still be
	// cancelled but never settled.
	require.Equal(t, sle.OfferActive, env.Offer(1, 1).Status)
	require.Equal(t, sle.ListingSold, env.Listing(1).Status)
	require.Equal(t, uint64(10_000), env.PaymentBalance(bob))

	env.RequireResult(alice, tx.NewOfferAccept(alice.Address, 1, 1), tx.TecLISTING_NOT_ACTIVE)
	env.SubmitOK(bob, tx.NewOfferCancel(bob.Address, 1, 1))
}

func TestOfferIDsScopedToListing(t *testing.T) {
	env := mtest.NewEnv(t, "alice", "bob")
	alice := env.Account("alice")
	bob := env.Account("bob")
	env.MintAsset(alice, 1, 100)
	env.SetupSeller(alice)
	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 1, 10, 100))
	env.SubmitOK(alice, tx.NewSaleCreate(alice.Address, 1, 10, 100))

	env.MintPayment(bob, 10_000)
	env.SetupOfferer(bob, 5_000)

	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 1, 300))
	env.SubmitOK(bob, tx.NewOfferCreate(bob.Address, 2, 400))

	// Offer numbering restarts per listing.
	require.Equal(t, uint32(1), env.Offer(1, 1).OfferID)
	require.Equal(t, uint32(1), env.Offer(2, 1).OfferID)
}
