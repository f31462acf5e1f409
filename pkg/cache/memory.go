// Package cache provides an in-process cache used when no Valkey cluster is
// configured. It implements the same Provider contract as the networked
// backend, so callers never branch on deployment shape.
package cache

import (
	"context"
	"sync"
	"time"

	internalcache "github.com/bloomsight/bloom-engine/internal/cache"
)

// MemoryCache is a TTL-aware in-memory Provider.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]item
}

type item struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]item)}
}

// Get retrieves a cached value, returning ErrCacheMiss when the key is absent
// or expired. Expired entries are evicted on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.data[key]
	if !ok {
		return nil, internalcache.ErrCacheMiss
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		delete(c.data, key)
		return nil, internalcache.ErrCacheMiss
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores a value; ttl <= 0 means no expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.data[key] = item{value: stored, expiresAt: expires}
	return nil
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]item)
	return nil
}
