// Package lru implements a bounded key/value cache with classic
// Least-Recently-Used replacement: every hit promotes the entry to the
// most-recent end, and inserts at capacity evict the least-recent entry.
package lru

import (
	"sync"

	"github.com/IvanBrykalov/polycache/cache"
	"github.com/IvanBrykalov/polycache/internal/dlist"
)

type entry[K comparable, V any] struct {
	key K
	val V
}

// Cache is a thread-safe LRU cache. All operations are O(1): one map
// access plus constant-time list adjustments under the cache mutex.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*dlist.Node[entry[K, V]]
	order    *dlist.List[entry[K, V]] // front = MRU, back = LRU

	metrics cache.Metrics
	onEvict func(K, V)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithMetrics wires an observability backend. Default: NoopMetrics.
func WithMetrics[K comparable, V any](m cache.Metrics) Option[K, V] {
	return func(c *Cache[K, V]) { c.metrics = m }
}

// WithOnEvict registers a callback invoked for every capacity eviction,
// under the cache mutex; keep it lightweight.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// New constructs an LRU cache. A negative capacity is clamped to 0;
// a zero-capacity cache is disabled (Set is a no-op).
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	c := &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*dlist.Node[entry[K, V]], capacity),
		order:    dlist.New[entry[K, V]](),
		metrics:  cache.NoopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Set inserts or overwrites k→v and promotes the entry to MRU.
func (c *Cache[K, V]) Set(k K, v V) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[k]; ok {
		n.Value.val = v
		c.order.MoveToFront(n)
		return
	}
	if len(c.items) >= c.capacity {
		c.evictLocked()
	}
	c.items[k] = c.order.PushFront(entry[K, V]{key: k, val: v})
	c.metrics.Size(len(c.items))
}

// Get returns the value for k and promotes the entry to MRU on hit.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[k]
	if !ok {
		c.metrics.Miss()
		var zero V
		return zero, false
	}
	c.order.MoveToFront(n)
	c.metrics.Hit()
	return n.Value.val, true
}

// Fetch is the error form of Get; it fails with cache.ErrNotFound.
func (c *Cache[K, V]) Fetch(k K) (V, error) {
	v, ok := c.Get(k)
	if !ok {
		return v, cache.ErrNotFound
	}
	return v, nil
}

// Peek returns the value for k without updating recency or metrics.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[k]; ok {
		return n.Value.val, true
	}
	var zero V
	return zero, false
}

// Contains reports whether k is resident, without side effects.
func (c *Cache[K, V]) Contains(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[k]
	return ok
}

// Remove deletes k if present and returns true on success.
// The eviction callback is not invoked for explicit removals.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[k]
	if !ok {
		return false
	}
	c.order.Remove(n)
	delete(c.items, k)
	c.metrics.Size(len(c.items))
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops all entries. The eviction callback is not invoked.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*dlist.Node[entry[K, V]], c.capacity)
	c.order = dlist.New[entry[K, V]]()
	c.metrics.Size(0)
}

// evictLocked removes the least-recent entry. Caller holds mu.
func (c *Cache[K, V]) evictLocked() {
	n := c.order.Back()
	if n == nil {
		return
	}
	e := c.order.Remove(n)
	delete(c.items, e.key)
	c.metrics.Evict(cache.EvictCapacity)
	if c.onEvict != nil {
		c.onEvict(e.key, e.val)
	}
}

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)
