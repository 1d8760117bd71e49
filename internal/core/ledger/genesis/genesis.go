// Package genesis builds the first ledger: the funded accounts, the
// marketplace account, and the market state entry.
package genesis

import (
	"errors"
	"fmt"
	"time"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/core/ledger/keylet"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

var (
	ErrNoMarketAccount = errors.New("genesis requires a market account")
	ErrNoAssetIssuer   = errors.New("genesis requires an asset issuer")
	ErrNoPaymentIssuer = errors.New("genesis requires a payment issuer")
)

// Account is an address funded at genesis.
type Account struct {
	Address string
	Balance uint64
}

// Config describes the genesis ledger.
type Config struct {
	// MarketAccount is the address the marketplace operates under.
	MarketAccount string

	// AssetIssuer may mint marketplace assets.
	AssetIssuer string

	// PaymentIssuer may mint payment tokens.
	PaymentIssuer string

	// Accounts are funded with native coins at genesis.
	Accounts []Account

	// CloseTime stamps the genesis ledger. Zero means now.
	CloseTime time.Time
}

// Create builds, closes, and validates the genesis ledger.
func Create(cfg Config) (*ledger.Ledger, error) {
	if cfg.MarketAccount == "" {
		return nil, ErrNoMarketAccount
	}
	if cfg.AssetIssuer == "" {
		return nil, ErrNoAssetIssuer
	}
	if cfg.PaymentIssuer == "" {
		return nil, ErrNoPaymentIssuer
	}

	l := ledger.New(1)

	var totalCoins uint64
	seen := make(map[string]bool)
	accounts := cfg.Accounts

	// The market account and issuers always get a root, unfunded if
	// the config does not list them.
	for _, addr := range []string{cfg.MarketAccount, cfg.AssetIssuer, cfg.PaymentIssuer} {
		found := false
		for _, acct := range accounts {
			if acct.Address == addr {
				found = true
				break
			}
		}
		if !found {
			accounts = append(accounts, Account{Address: addr})
		}
	}

	for _, acct := range accounts {
		if seen[acct.Address] {
			return nil, fmt.Errorf("duplicate genesis account %s", acct.Address)
		}
		seen[acct.Address] = true

		accountID, err := sle.DecodeAccountID(acct.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid genesis account %s: %w", acct.Address, err)
		}

		root := &sle.AccountRoot{
			Account:  acct.Address,
			Balance:  acct.Balance,
			Sequence: 1,
		}
		data, err := sle.SerializeAccountRoot(root)
		if err != nil {
			return nil, err
		}
		if err := l.Insert(keylet.Account(accountID), data); err != nil {
			return nil, err
		}
		totalCoins += acct.Balance
	}

	state := &sle.MarketState{
		NextListingID: 1,
		MarketAccount: cfg.MarketAccount,
		AssetIssuer:   cfg.AssetIssuer,
		PaymentIssuer: cfg.PaymentIssuer,
	}
	stateData, err := sle.SerializeMarketState(state)
	if err != nil {
		return nil, err
	}
	if err := l.Insert(keylet.MarketState(), stateData); err != nil {
		return nil, err
	}

	l.SetTotalCoins(totalCoins)

	closeTime := cfg.CloseTime
	if closeTime.IsZero() {
		closeTime = time.Now().UTC()
	}
	if err := l.Close(closeTime); err != nil {
		return nil, err
	}
	if err := l.SetValidated(); err != nil {
		return nil, err
	}
	return l, nil
}
