package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	items     []string
	expiresAt time.Time
}

// MemoryCache is a TTL map without a capacity bound. Expired entries are
// dropped when they are read.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache returns a cache whose entries live for ttl.
// A zero ttl uses DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(ctx context.Context, username string) ([]string, error) {
	c.mu.RLock()
	entry, ok := c.entries[username]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[username]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, username)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return slices.Clone(entry.items), nil
}

func (c *MemoryCache) Set(ctx context.Context, username string, items []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[username] = memoryEntry{
		items:     slices.Clone(items),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if username == "" {
		clear(c.entries)
		return nil
	}
	delete(c.entries, username)
	return nil
}

// EvictExpired drops every expired entry.
func (c *MemoryCache) EvictExpired(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int64
	for username, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, username)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
