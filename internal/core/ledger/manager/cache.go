// Package manager keeps closed ledgers available: an LRU cache in
// front of compressed records in the key/value store.
package manager

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openxm/marketd/internal/core/ledger"
)

// Cache holds recently used closed ledgers in memory.
type Cache struct {
	mu sync.RWMutex

	recentBySeq  *lru.Cache[uint32, *ledger.Ledger]
	recentByHash *lru.Cache[[32]byte, *ledger.Ledger]

	hits   uint64
	misses uint64
}

// CacheConfig configures the in-memory cache.
type CacheConfig struct {
	// MaxRecentLedgers is the number of ledgers kept in memory.
	MaxRecentLedgers int
}

// NewCache creates a ledger cache.
func NewCache(config CacheConfig) (*Cache, error) {
	if config.MaxRecentLedgers <= 0 {
		config.MaxRecentLedgers = 256
	}

	seqCache, err := lru.New[uint32, *ledger.Ledger](config.MaxRecentLedgers)
	if err != nil {
		return nil, err
	}
	hashCache, err := lru.New[[32]byte, *ledger.Ledger](config.MaxRecentLedgers)
	if err != nil {
		return nil, err
	}

	return &Cache{
		recentBySeq:  seqCache,
		recentByHash: hashCache,
	}, nil
}

// Get retrieves a cached ledger by sequence.
func (c *Cache) Get(seq uint32) (*ledger.Ledger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, found := c.recentBySeq.Get(seq)
	if found {
		c.hits++
		return l, true
	}
	c.misses++
	return nil, false
}

// GetByHash retrieves a cached ledger by hash.
func (c *Cache) GetByHash(hash [32]byte) (*ledger.Ledger, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, found := c.recentByHash.Get(hash)
	if found {
		c.hits++
		return l, true
	}
	c.misses++
	return nil, false
}

// Put stores a closed ledger in the cache.
func (c *Cache) Put(l *ledger.Ledger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recentBySeq.Add(l.Sequence(), l)
	c.recentByHash.Add(l.Hash(), l)
}

// Remove evicts a ledger from the cache.
func (c *Cache) Remove(seq uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, found := c.recentBySeq.Peek(seq); found {
		c.recentByHash.Remove(l.Hash())
	}
	c.recentBySeq.Remove(seq)
}

// Stats returns cache hit/miss counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
		Len:     c.recentBySeq.Len(),
	}
}

// CacheStats holds cache performance counters.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Len     int
}
