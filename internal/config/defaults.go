package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for a development deployment.
const (
	DefaultHTTPAddress    = "127.0.0.1:5005"
	DefaultWSAddress      = "127.0.0.1:6006"
	DefaultRequestTimeout = 30 * time.Second
	DefaultBaseFee        = 10
	DefaultCompressor     = "lz4"
	DefaultCacheSize      = 128
	DefaultLogLevel       = "info"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", DefaultHTTPAddress)
	v.SetDefault("server.ws_address", DefaultWSAddress)
	v.SetDefault("server.request_timeout", DefaultRequestTimeout)

	v.SetDefault("database.path", "")
	v.SetDefault("database.history", true)
	v.SetDefault("database.compressor", DefaultCompressor)
	v.SetDefault("database.cache_size", DefaultCacheSize)

	v.SetDefault("ledger.base_fee", DefaultBaseFee)
	v.SetDefault("ledger.standalone", true)

	v.SetDefault("genesis_file", "")
	v.SetDefault("log_level", DefaultLogLevel)
}

// DefaultConfig returns the built-in configuration without reading any
// file or environment variable.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddress:    DefaultHTTPAddress,
			WSAddress:      DefaultWSAddress,
			RequestTimeout: DefaultRequestTimeout,
		},
		Database: DatabaseConfig{
			History:    true,
			Compressor: DefaultCompressor,
			CacheSize:  DefaultCacheSize,
		},
		Ledger: LedgerConfig{
			BaseFee:    DefaultBaseFee,
			Standalone: true,
		},
		LogLevel: DefaultLogLevel,
	}
}
