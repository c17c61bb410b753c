package catalog

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedEntry wraps a value with the schema version it was cached under.
// Found is false for negative entries (the lookup returned nothing).
type cachedEntry[T any] struct {
	Version  string
	Value    T
	Found    bool
	CachedAt time.Time
}

// lookupCache is an expiring LRU with version-based invalidation
type lookupCache[T any] struct {
	lru *expirable.LRU[string, *cachedEntry[T]]
}

func newLookupCache[T any](size int, ttl time.Duration) *lookupCache[T] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &lookupCache[T]{
		lru: expirable.NewLRU[string, *cachedEntry[T]](size, nil, ttl),
	}
}

// Get returns (entry, true) on a hit; stale-version entries are evicted
func (c *lookupCache[T]) Get(key string) (*cachedEntry[T], bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(key)
		return nil, false
	}
	return entry, true
}

// Set stores a value, or a negative entry when found is false
func (c *lookupCache[T]) Set(key string, value T, found bool) {
	c.lru.Add(key, &cachedEntry[T]{
		Version:  CacheSchemaVersion,
		Value:    value,
		Found:    found,
		CachedAt: time.Now(),
	})
}

// Clear removes all entries
func (c *lookupCache[T]) Clear() {
	c.lru.Purge()
}
