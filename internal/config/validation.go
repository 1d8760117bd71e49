package config

import (
	"errors"
	"fmt"

	"github.com/openxm/marketd/internal/storage/compress"
)

// ValidateConfig checks the configuration for values the daemon cannot
// start with.
func ValidateConfig(cfg *Config) error {
	if cfg.Server.HTTPAddress == "" {
		return errors.New("server.http_address is required")
	}
	if cfg.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}

	if cfg.Ledger.BaseFee == 0 {
		return errors.New("ledger.base_fee must be positive")
	}

	if cfg.Database.CacheSize < 0 {
		return errors.New("database.cache_size cannot be negative")
	}
	if cfg.Database.Compressor != "" {
		if _, err := compress.Get(cfg.Database.Compressor); err != nil {
			return fmt.Errorf("database.compressor: %w", err)
		}
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", cfg.LogLevel)
	}

	return nil
}
