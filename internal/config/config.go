// Package config loads the daemon configuration from a TOML file,
// environment variables, and built-in defaults.
package config

import (
	"time"
)

// Config is the complete marketd configuration.
type Config struct {
	// Server section: listen addresses for the RPC surfaces.
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Database section: where ledgers and history live on disk.
	Database DatabaseConfig `toml:"database" mapstructure:"database"`

	// Ledger section: fee and close behavior.
	Ledger LedgerConfig `toml:"ledger" mapstructure:"ledger"`

	// GenesisFile points to a JSON genesis description. Empty uses
	// the built-in development genesis.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig configures the HTTP and WebSocket listeners.
type ServerConfig struct {
	// HTTPAddress is the JSON-RPC listen address.
	HTTPAddress string `toml:"http_address" mapstructure:"http_address"`

	// WSAddress is the WebSocket listen address. Empty disables the
	// WebSocket server.
	WSAddress string `toml:"ws_address" mapstructure:"ws_address"`

	// RequestTimeout bounds one RPC request.
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
}

// DatabaseConfig configures on-disk storage.
type DatabaseConfig struct {
	// Path is the data directory. Empty keeps everything in memory.
	Path string `toml:"path" mapstructure:"path"`

	// History enables the SQLite transaction and trade index.
	History bool `toml:"history" mapstructure:"history"`

	// Compressor names the ledger blob compressor ("lz4" or "none").
	Compressor string `toml:"compressor" mapstructure:"compressor"`

	// CacheSize is the number of recent ledgers kept in memory.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// LedgerConfig configures the ledger engine.
type LedgerConfig struct {
	// BaseFee is the minimum transaction fee in native coins.
	BaseFee uint64 `toml:"base_fee" mapstructure:"base_fee"`

	// Standalone advances ledgers manually via ledger_accept.
	Standalone bool `toml:"standalone" mapstructure:"standalone"`
}

// GetConfigPath returns the path the configuration was loaded from.
// Empty when no file was used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
