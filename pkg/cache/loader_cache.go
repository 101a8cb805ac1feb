// Package cache provides a generic loader cache combining LRU storage with
// singleflight to coalesce concurrent loads for the same key.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// store is the subset shared by lru.Cache and expirable.LRU.
type store[V any] interface {
	Get(key string) (V, bool)
	Add(key string, value V) bool
	Remove(key string) bool
	Purge()
	Len() int
}

// LoaderCache loads values on miss via a callback and coalesces concurrent loads for the same key.
// A burst of N concurrent misses for one key runs a single load; the rest share its result.
// Failed loads are never cached. Keys are converted to strings via keyToString.
type LoaderCache[K comparable, V any] struct {
	entries     store[V]
	group       singleflight.Group
	keyToString func(K) string
}

// Option configures a LoaderCache.
type Option func(*options)

type options struct {
	ttl time.Duration
}

// WithTTL expires entries after ttl. Zero keeps entries until evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// NewLoaderCache creates a loader cache with the given max entries and key serializer.
func NewLoaderCache[K comparable, V any](maxEntries int, keyToString func(K) string, opts ...Option) (*LoaderCache[K, V], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &LoaderCache[K, V]{keyToString: keyToString}

	if o.ttl > 0 {
		if maxEntries <= 0 {
			return nil, errInvalidSize
		}

		c.entries = expirable.NewLRU[string, V](maxEntries, nil, o.ttl)

		return c, nil
	}

	lruCache, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}

	c.entries = lruCache

	return c, nil
}

// Get returns the value for key, loading it via load on cache miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	v, _, err := c.GetWithStats(ctx, key, load)

	return v, err
}

// GetWithStats is like Get but also reports whether the value came from cache (hit) or was loaded (miss).
// Callers use it for metrics without pushing metrics into this package.
func (c *LoaderCache[K, V]) GetWithStats(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, bool, error) {
	keyStr := c.keyToString(key)
	if v, ok := c.entries.Get(keyStr); ok {
		return v, true, nil
	}

	val, err, _ := c.group.Do(keyStr, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.entries.Add(keyStr, loaded)

		return loaded, nil
	})
	if err != nil {
		var zero V

		return zero, false, err
	}

	return val.(V), false, nil
}

// Invalidate removes the entry for key.
func (c *LoaderCache[K, V]) Invalidate(key K) {
	c.entries.Remove(c.keyToString(key))
}

// InvalidateAll removes all entries.
func (c *LoaderCache[K, V]) InvalidateAll() {
	c.entries.Purge()
}

// Len returns the number of entries in the cache.
func (c *LoaderCache[K, V]) Len() int {
	return c.entries.Len()
}
