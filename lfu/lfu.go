// Package lfu implements a bounded key/value cache with
// Least-Frequently-Used replacement and periodic frequency aging.
//
// Entries are indexed by reference count into frequency buckets, FIFO
// within each bucket; a cached minimum-frequency cursor makes eviction
// O(1). When the average frequency across resident entries exceeds the
// configured threshold, every counter is halved, so ancient
// high-frequency entries cannot permanently shadow the current
// workload.
package lfu

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/IvanBrykalov/polycache/cache"
	"github.com/IvanBrykalov/polycache/internal/dlist"
)

type entry[K comparable, V any] struct {
	key  K
	val  V
	freq int
}

// Cache is a thread-safe LFU cache with aging.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   int
	maxAverage int // tolerated average frequency before aging

	items   map[K]*dlist.Node[*entry[K, V]]
	buckets map[int]*dlist.List[*entry[K, V]] // freq → FIFO of entries
	minFreq int                               // smallest non-empty bucket; 0 when empty

	totalRefs int64 // incremented on every Get, reduced on evict/aging

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

// New constructs an LFU cache. maxAverage is the tolerated average
// reference count per resident entry; once exceeded, aging halves every
// frequency. Negative capacity clamps to 0 (disabled cache); maxAverage
// below 1 clamps to 1.
func New[K comparable, V any](capacity, maxAverage int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	if maxAverage < 1 {
		maxAverage = 1
	}
	c := &Cache[K, V]{
		capacity:   capacity,
		maxAverage: maxAverage,
		items:      make(map[K]*dlist.Node[*entry[K, V]], capacity),
		buckets:    make(map[int]*dlist.List[*entry[K, V]]),
		metrics:    cache.NoopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Set inserts or overwrites k→v. An overwrite refreshes the entry's
// position at the tail of its current bucket but does not change its
// frequency: writes are intent-neutral signals.
func (c *Cache[K, V]) Set(k K, v V) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[k]; ok {
		e := n.Value
		e.val = v
		c.buckets[e.freq].MoveToBack(n)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictLocked()
	}
	e := &entry[K, V]{key: k, val: v, freq: 1}
	c.items[k] = c.bucket(1).PushBack(e)
	c.minFreq = 1
	c.metrics.Size(len(c.items))
}

// Get returns the value for k. A hit moves the entry one bucket up.
// Every call — hit or miss — counts toward the global reference total
// that drives aging.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		v   V
		hit bool
	)
	if n, ok := c.items[k]; ok {
		v = n.Value.val
		c.touchLocked(n)
		hit = true
	}

	c.totalRefs++
	if len(c.items) > 0 && c.totalRefs/int64(len(c.items)) > int64(c.maxAverage) {
		c.ageLocked()
	}

	if hit {
		c.metrics.Hit()
	} else {
		c.metrics.Miss()
	}
	return v, hit
}

// Fetch is the error form of Get; it fails with cache.ErrNotFound.
func (c *Cache[K, V]) Fetch(k K) (V, error) {
	v, ok := c.Get(k)
	if !ok {
		return v, cache.ErrNotFound
	}
	return v, nil
}

// Remove deletes k if present and returns true on success.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[k]
	if !ok {
		return false
	}
	e := n.Value
	c.unlinkLocked(n)
	c.totalRefs -= int64(e.freq)
	if c.totalRefs < 0 {
		c.totalRefs = 0
	}
	delete(c.items, k)
	if e.freq == c.minFreq {
		c.deriveMinFreqLocked()
	}
	c.metrics.Size(len(c.items))
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops all entries and resets frequency state.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*dlist.Node[*entry[K, V]], c.capacity)
	c.buckets = make(map[int]*dlist.List[*entry[K, V]])
	c.minFreq = 0
	c.totalRefs = 0
	c.metrics.Size(0)
}

// -------------------- internals (mu held) --------------------

// bucket returns the list for frequency f, creating it if needed.
func (c *Cache[K, V]) bucket(f int) *dlist.List[*entry[K, V]] {
	l, ok := c.buckets[f]
	if !ok {
		l = dlist.New[*entry[K, V]]()
		c.buckets[f] = l
	}
	return l
}

// unlinkLocked detaches n from its bucket, dropping the bucket if empty.
func (c *Cache[K, V]) unlinkLocked(n *dlist.Node[*entry[K, V]]) {
	f := n.Value.freq
	l := c.buckets[f]
	l.Remove(n)
	if l.Len() == 0 {
		delete(c.buckets, f)
	}
}

// touchLocked moves the entry from bucket f to the tail of bucket f+1.
func (c *Cache[K, V]) touchLocked(n *dlist.Node[*entry[K, V]]) {
	e := n.Value
	old := e.freq
	c.unlinkLocked(n)
	e.freq = old + 1
	c.items[e.key] = c.bucket(e.freq).PushBack(e)
	if old == c.minFreq {
		if _, ok := c.buckets[old]; !ok {
			c.minFreq = old + 1
		}
	}
}

// evictLocked removes the oldest entry of the minimum-frequency bucket.
func (c *Cache[K, V]) evictLocked() {
	l, ok := c.buckets[c.minFreq]
	if !ok {
		c.deriveMinFreqLocked()
		l, ok = c.buckets[c.minFreq]
		if !ok {
			return
		}
	}
	n := l.Front()
	if n == nil {
		return
	}
	e := n.Value
	c.unlinkLocked(n)
	delete(c.items, e.key)
	c.totalRefs -= int64(e.freq)
	if c.totalRefs < 0 {
		c.totalRefs = 0
	}
	c.deriveMinFreqLocked()
	c.metrics.Evict(cache.EvictCapacity)
	if c.onEvict != nil {
		c.onEvict(e.key, e.val)
	}
}

// deriveMinFreqLocked recomputes the minimum-frequency cursor by
// scanning the bucket index. O(#buckets), eviction/remove path only.
func (c *Cache[K, V]) deriveMinFreqLocked() {
	min := 0
	for f := range c.buckets {
		if min == 0 || f < min {
			min = f
		}
	}
	c.minFreq = min
}

// ageLocked halves every frequency and rebuilds the bucket index
// atomically. Buckets are walked in ascending frequency order so the
// FIFO-within-bucket property survives the rebuild deterministically.
func (c *Cache[K, V]) ageLocked() {
	if len(c.items) == 0 {
		c.totalRefs = 0
		return
	}

	freqs := make([]int, 0, len(c.buckets))
	for f := range c.buckets {
		freqs = append(freqs, f)
	}
	slices.Sort(freqs)

	detached := make([]*entry[K, V], 0, len(c.items))
	for _, f := range freqs {
		for n := c.buckets[f].Front(); n != nil; n = n.Next() {
			detached = append(detached, n.Value)
		}
	}

	c.buckets = make(map[int]*dlist.List[*entry[K, V]])
	c.totalRefs = 0
	for _, e := range detached {
		e.freq /= 2
		if e.freq < 1 {
			e.freq = 1
		}
		c.items[e.key] = c.bucket(e.freq).PushBack(e)
		c.totalRefs += int64(e.freq)
	}
	c.deriveMinFreqLocked()
}

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)
