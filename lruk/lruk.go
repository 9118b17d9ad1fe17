// Package lruk implements LRU-K: an LRU cache guarded by a two-tier
// admission filter. A key enters the main cache only after it has been
// referenced K times (gets and sets combined), so keys touched fewer
// than K times — one-shot scans in particular — never displace hot
// entries.
//
// The filter is itself a small LRU mapping keys to reference counts;
// values observed on Set before promotion are parked in a side map and
// installed on promotion. A key is in the main cache, in the filter, or
// in neither — never both.
package lruk

import (
	"sync"

	"github.com/IvanBrykalov/polycache/cache"
	"github.com/IvanBrykalov/polycache/lru"
)

// Cache is a thread-safe LRU-K cache.
type Cache[K comparable, V any] struct {
	mu sync.Mutex
	k  int

	main    *lru.Cache[K, V]
	history *lru.Cache[K, int] // key → cumulative reference count
	pending map[K]V            // values seen on Set, awaiting promotion

	metrics cache.Metrics
	onEvict func(K, V)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithMetrics wires an observability backend. Default: NoopMetrics.
func WithMetrics[K comparable, V any](m cache.Metrics) Option[K, V] {
	return func(c *Cache[K, V]) { c.metrics = m }
}

// WithOnEvict registers a callback for main-cache capacity evictions.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// New constructs an LRU-K cache with a main cache of the given capacity
// and a history filter of historyCapacity. k is the promotion threshold;
// values below 1 are clamped to 1 (which degenerates to plain LRU).
func New[K comparable, V any](capacity, historyCapacity, k int, opts ...Option[K, V]) *Cache[K, V] {
	if k < 1 {
		k = 1
	}
	c := &Cache[K, V]{
		k:       k,
		pending: make(map[K]V),
		metrics: cache.NoopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}

	c.main = lru.New[K, V](capacity,
		lru.WithMetrics[K, V](evictOnly{c.metrics}),
		lru.WithOnEvict[K, V](c.onEvict),
	)
	// The filter evicting a key must drop its parked value too,
	// otherwise the key would linger in neither tier with state behind.
	c.history = lru.New[K, int](historyCapacity,
		lru.WithOnEvict[K, int](func(k K, _ int) { delete(c.pending, k) }),
	)
	return c
}

// Set inserts or overwrites k→v. Keys already resident in the main
// cache are updated in place with a recency bump; other keys accrue a
// reference and are promoted once the count reaches K.
func (c *Cache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.main.Contains(k) {
		c.main.Set(k, v)
		return
	}

	cnt := c.referenceLocked(k)
	c.pending[k] = v
	if cnt >= c.k {
		c.promoteLocked(k, v)
	}
}

// Get returns the value for k. A main-cache hit bumps recency. A miss
// accrues a reference; if that reference reaches K and a value was
// parked by an earlier Set, the key is promoted and the parked value
// returned. A key at K references with no parked value stays a miss.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.main.Get(k); ok {
		c.metrics.Hit()
		return v, true
	}

	cnt := c.referenceLocked(k)
	if cnt >= c.k {
		if v, ok := c.pending[k]; ok {
			c.promoteLocked(k, v)
			// A zero-capacity main cache drops the promoted value.
			if c.main.Contains(k) {
				c.metrics.Hit()
				return v, true
			}
		}
	}
	c.metrics.Miss()
	var zero V
	return zero, false
}

// Fetch is the error form of Get; it fails with cache.ErrNotFound.
func (c *Cache[K, V]) Fetch(k K) (V, error) {
	v, ok := c.Get(k)
	if !ok {
		return v, cache.ErrNotFound
	}
	return v, nil
}

// Remove deletes k from whichever tier holds it.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.main.Remove(k) {
		return true
	}
	delete(c.pending, k)
	return c.history.Remove(k)
}

// Len returns the number of entries resident in the main cache.
// Filter entries are bookkeeping, not cached data.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.main.Len()
}

// Purge drops both tiers and all parked values.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.main.Purge()
	c.history.Purge()
	c.pending = make(map[K]V)
}

// referenceLocked bumps and returns k's cumulative reference count.
func (c *Cache[K, V]) referenceLocked(k K) int {
	cnt, _ := c.history.Peek(k)
	cnt++
	c.history.Set(k, cnt)
	return cnt
}

// promoteLocked admits k into the main cache and clears filter state.
func (c *Cache[K, V]) promoteLocked(k K, v V) {
	c.history.Remove(k)
	delete(c.pending, k)
	c.main.Set(k, v)
}

// evictOnly forwards eviction and size signals from the inner main
// cache while keeping hit/miss accounting at the LRU-K level.
type evictOnly struct{ m cache.Metrics }

func (e evictOnly) Hit()                      {}
func (e evictOnly) Miss()                     {}
func (e evictOnly) Evict(r cache.EvictReason) { e.m.Evict(r) }
func (e evictOnly) Size(entries int)          { e.m.Size(entries) }

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)
