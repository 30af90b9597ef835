package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the in-process cache when no size is given.
const DefaultMemoryEntries = 1000

// MemoryCache is the in-process fallback used when REDIS_URL is unset. It
// holds at most size entries; the least recently used one is evicted first
// and expired entries are purged in the background.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache returns a cache of at most size entries, each kept for ttl.
// A ttl of zero keeps entries until they are evicted by size.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &MemoryCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.lru.Add(key, value)
	return nil
}

// Len reports how many entries are held, expired ones included until purged.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
