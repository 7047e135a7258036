// Package settings provides the encrypted key-value settings store the
// supplier integration persists its credentials and tokens through.
// All business logic depends on the Store interface, never on concrete
// implementations.
package settings

import (
	"context"
	"sync"
)

// Store defines key-value settings persistence. Get reports absence
// via ok=false rather than an error; Delete of absent keys is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Cached decorates a Store with an invalidatable read-through cache.
// Writes update the cache; Invalidate drops entries so the next read
// hits the backing store.
type Cached struct {
	inner Store

	mu    sync.RWMutex
	cache map[string]string
}

// NewCached wraps inner with a read-through cache.
func NewCached(inner Store) *Cached {
	return &Cached{
		inner: inner,
		cache: make(map[string]string),
	}
}

// Get returns the cached value when present, otherwise reads through to
// the backing store and caches the result.
func (c *Cached) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	v, hit := c.cache[key]
	c.mu.RUnlock()
	if hit {
		return v, true, nil
	}

	v, ok, err := c.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	c.mu.Lock()
	c.cache[key] = v
	c.mu.Unlock()
	return v, true, nil
}

// Set writes through to the backing store and refreshes the cache.
func (c *Cached) Set(ctx context.Context, key, value string) error {
	if err := c.inner.Set(ctx, key, value); err != nil {
		return err
	}

	c.mu.Lock()
	c.cache[key] = value
	c.mu.Unlock()
	return nil
}

// Delete removes keys from the backing store and the cache. Deleting
// absent keys is not an error.
func (c *Cached) Delete(ctx context.Context, keys ...string) error {
	if err := c.inner.Delete(ctx, keys...); err != nil {
		return err
	}

	c.mu.Lock()
	for _, k := range keys {
		delete(c.cache, k)
	}
	c.mu.Unlock()
	return nil
}

// Invalidate drops the given keys from the cache, or the entire cache
// when called with no arguments.
func (c *Cached) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.cache = make(map[string]string)
		return
	}
	for _, k := range keys {
		delete(c.cache, k)
	}
}
