// Package cache provides time-boxed memoization for flaky external lookups.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads a fresh value for a key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache memoizes fetch results per key for a fixed TTL. Concurrent fetches
// for the same key are collapsed into a single upstream call. A failed fetch
// falls back to the last cached value even if expired, else the zero value,
// so callers are never blocked by an unavailable upstream.
type Cache[T any] struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]entry[T]
	group   singleflight.Group

	// now is swappable for tests.
	now func() time.Time
}

// New creates a cache with the given TTL.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// Get returns the cached value for key if fresh, otherwise fetches and stores
// a new one. Fetch failures degrade to the last cached value (stale allowed)
// or the zero value; they never propagate to the caller.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) T {
	c.mu.RLock()
	e, ok := c.entries[key]
	fresh := ok && c.now().Sub(e.fetchedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return e.value
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another caller may have refreshed while we waited.
		c.mu.RLock()
		e, ok := c.entries[key]
		fresh := ok && c.now().Sub(e.fetchedAt) < c.ttl
		c.mu.RUnlock()
		if fresh {
			return e.value, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[T]{value: value, fetchedAt: c.now()}
		c.mu.Unlock()
		return value, nil
	})

	if err != nil {
		// Stale fallback
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return e.value
		}
		var zero T
		return zero
	}
	return v.(T)
}

// Invalidate drops the cached entry for key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached entries, fresh or stale.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
