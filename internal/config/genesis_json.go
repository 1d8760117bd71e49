package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openxm/marketd/internal/core/ledger/genesis"
	"github.com/openxm/marketd/internal/core/tx/sle"
)

// GenesisJSON is the JSON genesis file format:
//
//	{
//	  "market_account": "...",
//	  "asset_issuer": "...",
//	  "payment_issuer": "...",
//	  "close_time": 1700000000,
//	  "accounts": [{"address": "...", "balance": 1000000000}]
//	}
type GenesisJSON struct {
	MarketAccount string               `json:"market_account"`
	AssetIssuer   string               `json:"asset_issuer"`
	PaymentIssuer string               `json:"payment_issuer"`
	CloseTime     int64                `json:"close_time,omitempty"`
	Accounts      []GenesisAccountJSON `json:"accounts"`
}

// GenesisAccountJSON is an address funded at genesis.
type GenesisAccountJSON struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// LoadGenesisJSON loads and parses a genesis JSON file.
func LoadGenesisJSON(path string) (*GenesisJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var g GenesisJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}
	return &g, nil
}

// Validate checks the genesis description for decodable addresses and
// required roles.
func (g *GenesisJSON) Validate() error {
	for name, addr := range map[string]string{
		"market_account": g.MarketAccount,
		"asset_issuer":   g.AssetIssuer,
		"payment_issuer": g.PaymentIssuer,
	} {
		if addr == "" {
			return fmt.Errorf("genesis %s is required", name)
		}
		if _, err := sle.DecodeAccountID(addr); err != nil {
			return fmt.Errorf("invalid genesis %s %q: %w", name, addr, err)
		}
	}

	seen := make(map[string]bool, len(g.Accounts))
	for _, acct := range g.Accounts {
		if _, err := sle.DecodeAccountID(acct.Address); err != nil {
			return fmt.Errorf("invalid genesis account %q: %w", acct.Address, err)
		}
		if seen[acct.Address] {
			return fmt.Errorf("duplicate genesis account %s", acct.Address)
		}
		seen[acct.Address] = true
	}
	return nil
}

// ToGenesisConfig converts the JSON description into the ledger
// genesis configuration.
func (g *GenesisJSON) ToGenesisConfig() (genesis.Config, error) {
	if err := g.Validate(); err != nil {
		return genesis.Config{}, err
	}

	cfg := genesis.Config{
		MarketAccount: g.MarketAccount,
		AssetIssuer:   g.AssetIssuer,
		PaymentIssuer: g.PaymentIssuer,
	}
	if g.CloseTime > 0 {
		cfg.CloseTime = time.Unix(g.CloseTime, 0).UTC()
	}
	for _, acct := range g.Accounts {
		cfg.Accounts = append(cfg.Accounts, genesis.Account{
			Address: acct.Address,
			Balance: acct.Balance,
		})
	}
	return cfg, nil
}
