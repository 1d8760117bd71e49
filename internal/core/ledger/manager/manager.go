package manager

import (
	"context"

	"github.com/openxm/marketd/internal/core/ledger"
	"github.com/openxm/marketd/internal/storage/keyvalue"
)

// Manager fronts ledger storage with the in-memory cache.
type Manager struct {
	cache   *Cache
	storage *Storage
}

// Config configures the ledger manager.
type Config struct {
	// MaxRecentLedgers is the in-memory cache size.
	MaxRecentLedgers int

	// Compressor names the compression used for persisted ledgers.
	Compressor string
}

// New creates a ledger manager over a key/value store.
func New(store keyvalue.Store, cfg Config) (*Manager, error) {
	cache, err := NewCache(CacheConfig{MaxRecentLedgers: cfg.MaxRecentLedgers})
	if err != nil {
		return nil, err
	}
	storage, err := NewStorage(store, cfg.Compressor)
	if err != nil {
		return nil, err
	}
	return &Manager{cache: cache, storage: storage}, nil
}

// StoreLedger persists a closed ledger and caches it.
func (m *Manager) StoreLedger(ctx context.Context, l *ledger.Ledger) error {
	if err := m.storage.StoreLedger(ctx, l); err != nil {
		return err
	}
	m.cache.Put(l)
	return nil
}

// GetLedger returns a ledger by sequence, loading from storage on a
// cache miss.
func (m *Manager) GetLedger(ctx context.Context, seq uint32) (*ledger.Ledger, error) {
	if l, ok := m.cache.Get(seq); ok {
		return l, nil
	}
	l, err := m.storage.GetLedger(ctx, seq)
	if err != nil {
		return nil, err
	}
	m.cache.Put(l)
	return l, nil
}

// GetLedgerByHash returns a ledger by hash.
func (m *Manager) GetLedgerByHash(ctx context.Context, hash [32]byte) (*ledger.Ledger, error) {
	if l, ok := m.cache.GetByHash(hash); ok {
		return l, nil
	}
	l, err := m.storage.GetLedgerByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	m.cache.Put(l)
	return l, nil
}

// LatestSequence returns the highest persisted ledger sequence.
func (m *Manager) LatestSequence(ctx context.Context) (uint32, error) {
	return m.storage.LatestSequence(ctx)
}

// CacheStats returns cache hit/miss counters.
func (m *Manager) CacheStats() CacheStats {
	return m.cache.Stats()
}
