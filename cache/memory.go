package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jonwraymond/clickup-go/internal/clock"
)

// DefaultMaxEntries bounds a MemoryCache created with a non-positive size.
const DefaultMaxEntries = 1024

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	entries *lru.Cache[string, cacheEntry]
	clock   clock.Clock
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock sets the time source used for expiry.
func WithClock(c clock.Clock) MemoryOption {
	return func(m *MemoryCache) { m.clock = clock.OrReal(c) }
}

// NewMemoryCache creates a cache holding at most maxEntries responses.
// The least recently used entry is evicted first.
func NewMemoryCache(maxEntries int, opts ...MemoryOption) (*MemoryCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, err
	}

	c := &MemoryCache{entries: entries, clock: clock.Real()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get retrieves a value. Expired entries are removed lazily.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value for ttl. TTL<=0 stores nothing.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.entries.Add(key, cacheEntry{value: value, expiresAt: c.clock.Now().Add(ttl)})
	return nil
}

// Delete removes a value. Idempotent.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Purge removes every entry.
func (c *MemoryCache) Purge() {
	c.entries.Purge()
}

var _ Cache = (*MemoryCache)(nil)
