package keylet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyletsAreDeterministic(t *testing.T) {
	var owner [20]byte
	owner[0] = 1

	require.Equal(t, Account(owner), Account(owner))
	require.Equal(t, AssetBalance(owner, 5), AssetBalance(owner, 5))
	require.Equal(t, Listing(1), Listing(1))
	require.Equal(t, Offer(1, 1), Offer(1, 1))
	require.Equal(t, MarketState(), MarketState())
}

func TestKeyletsDoNotCollide(t *testing.T) {
	var a, b [20]byte
	a[0] = 1
	b[0] = 2

	seen := map[[32]byte]string{}
	add := func(name string, k Keylet) {
		if prev, ok := seen[k.Key]; ok {
			t.Fatalf("keylet collision: %s and %s", prev, name)
		}
		seen[k.Key] = name
	}

	add("account a", Account(a))
	add("account b", Account(b))
	add("asset balance a/1", AssetBalance(a, 1))
	add("asset balance a/2", AssetBalance(a, 2))
	add("asset balance b/1", AssetBalance(b, 1))
	add("asset approval a->b", AssetApproval(a, b))
	add("asset approval b->a", AssetApproval(b, a))
	add("payment balance a", PaymentBalance(a))
	add("allowance a->b", PaymentAllowance(a, b))
	add("listing 1", Listing(1))
	add("listing 2", Listing(2))
	add("offer 1/1", Offer(1, 1))
	add("offer 1/2", Offer(1, 2))
	add("offer 2/1", Offer(2, 1))
	add("market state", MarketState())
}
