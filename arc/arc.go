// Package arc implements the Adaptive Replacement Cache: a total
// capacity split between a recency arm (T1, LRU ordering) and a
// frequency arm (T2, frequency buckets), each shadowed by a ghost list
// of recently evicted keys (B1, B2).
//
// Entries are admitted into T1 and promoted into T2 once their access
// count (admission counts as the first access, each read adds one)
// reaches the transform threshold. A lookup that misses both arms
// but lands in a ghost list shifts one unit of capacity toward the arm
// the key was evicted from — B1 recurrence grows T1, B2 recurrence
// grows T2 — so the partition tracks whether the workload is currently
// recency- or frequency-friendly. The two arm capacities always sum to
// the declared total.
//
// Adaptation fires on read-path ghost hits only. Writes are
// decision-noise under write-heavy workloads; adapting on every Set
// thrashes the partition.
package arc

import (
	"sync"

	"github.com/IvanBrykalov/polycache/cache"
)

// Cache is a thread-safe adaptive replacement cache.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int
	threshold int // T1 access count (admission plus reads) that triggers promotion into T2

	t1 *recencyArm[K, V]
	t2 *frequencyArm[K, V]

	metrics cache.Metrics
	onEvict func(K, V)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithMetrics wires an observability backend. Default: NoopMetrics.
func WithMetrics[K comparable, V any](m cache.Metrics) Option[K, V] {
	return func(c *Cache[K, V]) { c.metrics = m }
}

// WithOnEvict registers a callback invoked for every eviction (capacity
// or arm shrink), under the cache mutex; keep it lightweight.
func WithOnEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// New constructs an ARC cache with the given total capacity, split
// evenly between the arms. Each ghost list is bounded by its arm's
// initial capacity. transformThreshold is the access count at which a
// T1 entry is promoted to T2; admission counts as the first access and
// each read adds one, so a threshold of 2 promotes on the first read.
// Values below 1 clamp to 1.
// Negative capacity clamps to 0 (disabled cache).
func New[K comparable, V any](capacity, transformThreshold int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	if transformThreshold < 1 {
		transformThreshold = 1
	}
	c1 := capacity / 2
	c2 := capacity - c1
	c := &Cache[K, V]{
		capacity:  capacity,
		threshold: transformThreshold,
		t1:        newRecencyArm[K, V](c1),
		t2:        newFrequencyArm[K, V](c2),
		metrics:   cache.NoopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the value for k. The frequency arm is probed first, then
// the recency arm; a T1 hit that crosses the transform threshold moves
// the entry into T2. A double miss that lands in a ghost list shifts
// one unit of capacity toward that ghost's arm; the key leaves the
// ghost list, both arms are re-probed once, and the call still reports
// a miss — ghosts carry no values to serve.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.t2.get(k); ok {
		c.metrics.Hit()
		return v, true
	}
	if v, hits, ok := c.t1.get(k); ok {
		if hits >= c.threshold {
			c.promoteLocked(k)
		}
		c.metrics.Hit()
		return v, true
	}

	if c.adaptLocked(k) {
		// Re-probe both arms once after the capacity move.
		if v, ok := c.getResidentLocked(k); ok {
			return v, ok
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

// Set inserts or overwrites k→v. Residents are updated in their arm;
// fresh keys are admitted into the recency arm (or the frequency arm
// when adaptation has shrunk T1 to nothing).
func (c *Cache[K, V]) Set(k K, v V) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.t2.update(k, v) {
		return
	}
	if c.t1.update(k, v) {
		return
	}

	if c.t1.capacity > 0 {
		if e := c.t1.add(k, v); e != nil {
			c.evicted(e.key, e.val, cache.EvictCapacity)
		}
	} else {
		if e := c.t2.add(k, v); e != nil {
			c.evicted(e.key, e.val, cache.EvictCapacity)
		}
	}
	c.metrics.Size(c.t1.len() + c.t2.len())
}

// Remove deletes k from whichever arm holds it, without ghosting.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.t1.remove(k) || c.t2.remove(k) {
		c.metrics.Size(c.t1.len() + c.t2.len())
		return true
	}
	return false
}

// Len returns the number of resident entries across both arms.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t1.len() + c.t2.len()
}

// Purge drops both arms and both ghost lists. The arm partition is
// left where adaptation moved it.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t1.purge()
	c.t2.purge()
	c.metrics.Size(0)
}

// Partition returns the current arm capacities (T1, T2). Their sum is
// the declared total capacity regardless of adaptation history.
func (c *Cache[K, V]) Partition() (recency, frequency int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t1.capacity, c.t2.capacity
}

// -------------------- internals (mu held) --------------------

// promoteLocked moves a T1 resident into T2 as a fresh frequency-1
// entry. Promotion is skipped while T2 has no capacity to hold it.
func (c *Cache[K, V]) promoteLocked(k K) {
	if c.t2.capacity <= 0 {
		return
	}
	e, ok := c.t1.take(k)
	if !ok {
		return
	}
	if ev := c.t2.add(e.key, e.val); ev != nil {
		c.evicted(ev.key, ev.val, cache.EvictCapacity)
	}
}

// adaptLocked consults the ghost lists for a key that missed both arms
// and moves one unit of capacity toward the ghost's arm. Reports
// whether a capacity move happened. The arm totals are conserved:
// every grow is paired with a successful shrink.
func (c *Cache[K, V]) adaptLocked(k K) bool {
	switch {
	case c.t1.ghost.contains(k):
		if !c.shrinkT2Locked() {
			return false
		}
		c.t1.capacity++
		c.t1.ghost.remove(k)
		return true
	case c.t2.ghost.contains(k):
		if !c.shrinkT1Locked() {
			return false
		}
		c.t2.capacity++
		c.t2.ghost.remove(k)
		return true
	}
	return false
}

// shrinkT2Locked gives up one unit of T2 capacity, evicting if the arm
// would overflow. Fails when T2 has nothing left to give.
func (c *Cache[K, V]) shrinkT2Locked() bool {
	if c.t2.capacity <= 0 {
		return false
	}
	c.t2.capacity--
	for c.t2.len() > c.t2.capacity {
		e := c.t2.evictOne()
		if e == nil {
			break
		}
		c.evicted(e.key, e.val, cache.EvictResize)
	}
	return true
}

func (c *Cache[K, V]) shrinkT1Locked() bool {
	if c.t1.capacity <= 0 {
		return false
	}
	c.t1.capacity--
	for c.t1.len() > c.t1.capacity {
		e := c.t1.evictOne()
		if e == nil {
			break
		}
		c.evicted(e.key, e.val, cache.EvictResize)
	}
	return true
}

// getResidentLocked serves a key if it is resident in an arm. With
// key-only ghosts adaptation never re-admits, so today this always
// reports a miss; it exists to keep the re-probe step explicit.
func (c *Cache[K, V]) getResidentLocked(k K) (V, bool) {
	if v, ok := c.t2.get(k); ok {
		c.metrics.Hit()
		return v, true
	}
	if v, _, ok := c.t1.get(k); ok {
		c.metrics.Hit()
		return v, true
	}
	var zero V
	return zero, false
}

func (c *Cache[K, V]) evicted(k K, v V, reason cache.EvictReason) {
	c.metrics.Evict(reason)
	if c.onEvict != nil {
		c.onEvict(k, v)
	}
}

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)
