package server

import (
	"crypto/sha512"
	"fmt"

	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/tx/sle"
	"github.com/openxm/marketd/internal/crypto"
)

// DevTreasuryFunding is the native coin balance of the built-in
// development treasury account.
const DevTreasuryFunding uint64 = 100_000_000_000

// Development accounts are derived from fixed passphrases so every
// standalone node agrees on the same addresses.
const (
	devMarketSeed   = "marketd dev market"
	devAssetSeed    = "marketd dev asset issuer"
	devPaymentSeed  = "marketd dev payment issuer"
	devTreasurySeed = "marketd dev treasury"
)

// DevGenesis returns the built-in development genesis: the three
// marketplace roles plus one funded treasury account.
func DevGenesis() genesis.Config {
	return genesis.Config{
		MarketAccount: devAddress(devMarketSeed),
		AssetIssuer:   devAddress(devAssetSeed),
		PaymentIssuer: devAddress(devPaymentSeed),
		Accounts: []genesis.Account{
			{Address: devAddress(devTreasurySeed), Balance: DevTreasuryFunding},
		},
	}
}

// DevKeypair derives the keypair behind one of the development
// passphrases. Tools use it to sign as the built-in accounts.
func DevKeypair(passphrase string) (*crypto.Keypair, error) {
	digest := sha512.Sum512([]byte(passphrase))
	return crypto.DeriveKeypair(digest[:16])
}

func devAddress(passphrase string) string {
	kp, err := DevKeypair(passphrase)
	if err != nil {
		panic(fmt.Sprintf("failed to derive dev account %q: %v", passphrase, err))
	}
	return sle.EncodeAccountID(crypto.CalcAccountID(kp.PublicKey))
}
