package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mtest "github.com/openxm/marketd/internal/testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, DefaultHTTPAddress, cfg.Server.HTTPAddress)
	require.Equal(t, DefaultWSAddress, cfg.Server.WSAddress)
	require.Equal(t, DefaultRequestTimeout, cfg.Server.RequestTimeout)
	require.Equal(t, uint64(DefaultBaseFee), cfg.Ledger.BaseFee)
	require.True(t, cfg.Ledger.Standalone)
	require.Equal(t, DefaultCompressor, cfg.Database.Compressor)
	require.True(t, cfg.Database.History)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Empty(t, cfg.GetConfigPath())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeFile(t, "marketd.toml", `
log_level = "debug"

[server]
http_address = "0.0.0.0:8080"
ws_address = ""
request_timeout = "10s"

[database]
path = "/var/lib/marketd"
history = false
compressor = "none"
cache_size = 16

[ledger]
base_fee = 25
standalone = true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress)
	require.Empty(t, cfg.Server.WSAddress)
	require.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	require.Equal(t, "/var/lib/marketd", cfg.Database.Path)
	require.False(t, cfg.Database.History)
	require.Equal(t, "none", cfg.Database.Compressor)
	require.Equal(t, 16, cfg.Database.CacheSize)
	require.Equal(t, uint64(25), cfg.Ledger.BaseFee)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, path, cfg.GetConfigPath())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MARKETD_SERVER_HTTP_ADDRESS", "10.0.0.1:9999")
	t.Setenv("MARKETD_LEDGER_BASE_FEE", "42")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:9999", cfg.Server.HTTPAddress)
	require.Equal(t, uint64(42), cfg.Ledger.BaseFee)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing http address", func(c *Config) { c.Server.HTTPAddress = "" }, "http_address"},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "request_timeout"},
		{"zero base fee", func(c *Config) { c.Ledger.BaseFee = 0 }, "base_fee"},
		{"negative cache", func(c *Config) { c.Database.CacheSize = -1 }, "cache_size"},
		{"unknown compressor", func(c *Config) { c.Database.Compressor = "zstd" }, "compressor"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGenesisJSONRoundTrip(t *testing.T) {
	market := mtest.NewAccount("market")
	issuer := mtest.NewAccount("issuer")
	payment := mtest.NewAccount("payment")
	alice := mtest.NewAccount("alice")

	path := writeFile(t, "genesis.json", `{
		"market_account": "`+market.Address+`",
		"asset_issuer": "`+issuer.Address+`",
		"payment_issuer": "`+payment.Address+`",
		"close_time": 1700000000,
		"accounts": [
			{"address": "`+alice.Address+`", "balance": 1000000000}
		]
	}`)

	g, err := LoadGenesisJSON(path)
	require.NoError(t, err)
	require.NoError(t, g.Validate())

	cfg, err := g.ToGenesisConfig()
	require.NoError(t, err)
	require.Equal(t, market.Address, cfg.MarketAccount)
	require.Equal(t, issuer.Address, cfg.AssetIssuer)
	require.Equal(t, payment.Address, cfg.PaymentIssuer)
	require.Equal(t, time.Unix(1_700_000_000, 0).UTC(), cfg.CloseTime)
	require.Len(t, cfg.Accounts, 1)
	require.Equal(t, alice.Address, cfg.Accounts[0].Address)
	require.Equal(t, uint64(1_000_000_000), cfg.Accounts[0].Balance)
}

func TestGenesisJSONValidation(t *testing.T) {
	market := mtest.NewAccount("market")
	issuer := mtest.NewAccount("issuer")
	payment := mtest.NewAccount("payment")

	g := &GenesisJSON{
		AssetIssuer:   issuer.Address,
		PaymentIssuer: payment.Address,
	}
	err := g.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "market_account")

	g.MarketAccount = "not-an-address"
	err = g.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid genesis market_account")

	g.MarketAccount = market.Address
	g.Accounts = []GenesisAccountJSON{
		{Address: market.Address, Balance: 1},
		{Address: market.Address, Balance: 2},
	}
	err = g.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}
