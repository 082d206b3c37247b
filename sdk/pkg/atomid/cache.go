package atomid

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maypok86/otter"
)

// DefaultCacheTTL is how long a verified account is served from cache.
const DefaultCacheTTL = 5 * time.Minute

// Cache stores decoded accounts keyed by base58 owner identity. Implementations
// keep their own copy of each account and return a fresh copy from Get.
type Cache interface {
	Get(key string) (*Account, bool)
	Put(key string, acc *Account, ttl time.Duration)
	Clear()
}

type ttlEntry struct {
	account   Account
	expiresAt time.Time
}

// TTLCache is an unbounded in-process cache. Expired entries are skipped on
// lookup and overwritten on the next Put; they are never swept.
type TTLCache struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	entries map[string]ttlEntry
}

// NewTTLCache creates a TTLCache. A nil clock uses the real clock.
func NewTTLCache(clock clockwork.Clock) *TTLCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache{
		clock:   clock,
		entries: make(map[string]ttlEntry),
	}
}

func (c *TTLCache) Get(key string) (*Account, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		return nil, false
	}
	acc := entry.account
	return &acc, true
}

func (c *TTLCache) Put(key string, acc *Account, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry{
		account:   *acc,
		expiresAt: c.clock.Now().Add(ttl),
	}
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ttlEntry)
}

// Len returns the number of stored entries, including expired ones.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// BoundedCache caps the number of cached accounts for long-running processes.
type BoundedCache struct {
	store otter.CacheWithVariableTTL[string, Account]
}

// NewBoundedCache creates a cache holding at most maxEntries accounts.
func NewBoundedCache(maxEntries int) (*BoundedCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("max entries must be greater than 0, got %d", maxEntries)
	}
	store, err := otter.MustBuilder[string, Account](maxEntries).
		WithVariableTTL().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}
	return &BoundedCache{store: store}, nil
}

func (c *BoundedCache) Get(key string) (*Account, bool) {
	acc, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return &acc, true
}

func (c *BoundedCache) Put(key string, acc *Account, ttl time.Duration) {
	c.store.Set(key, *acc, ttl)
}

func (c *BoundedCache) Clear() {
	c.store.Clear()
}

// Close stops the cache's background maintenance.
func (c *BoundedCache) Close() {
	c.store.Close()
}
