// Package sharded partitions one logical cache across multiple engine
// instances to reduce lock contention: each engine serializes its own
// operations, so splitting the keyspace by hash lets goroutines working
// on different shards proceed in parallel.
package sharded

import (
	"github.com/IvanBrykalov/polycache/cache"
	"github.com/IvanBrykalov/polycache/internal/util"
)

// Cache routes operations to one of several engine instances by key
// hash. The shard count is rounded up to a power of two so routing is a
// mask, not a modulo.
type Cache[K comparable, V any] struct {
	shards []cache.Cache[K, V]
	hash   func(K) uint64

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
}

// New builds a sharded cache over the given engine constructor. The
// total capacity is split evenly (ceil) across shards, so per-shard
// policy state — ghost lists, frequency buckets, history filters — is
// sized per shard. shards <= 0 picks an automatic value from CPU
// parallelism; any value is rounded up to the next power of two.
//
//	c := sharded.New(100_000, 0, func(capacity int) cache.Cache[string, string] {
//	    return arc.New[string, string](capacity, 2)
//	})
func New[K comparable, V any](total, shards int, build func(capacity int) cache.Cache[K, V]) *Cache[K, V] {
	if shards <= 0 {
		shards = util.ReasonableShardCount()
	}
	shards = int(util.NextPow2(uint64(shards)))

	perShard := (total + shards - 1) / shards
	cs := make([]cache.Cache[K, V], shards)
	for i := range cs {
		cs[i] = build(perShard)
	}
	return &Cache[K, V]{
		shards: cs,
		hash:   util.Fnv64a[K],
	}
}

// Set inserts or overwrites k→v in k's shard.
func (c *Cache[K, V]) Set(k K, v V) { c.shard(k).Set(k, v) }

// Get returns the value for k from k's shard.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	v, ok := c.shard(k).Get(k)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Fetch is the error form of Get; it fails with cache.ErrNotFound.
func (c *Cache[K, V]) Fetch(k K) (V, error) {
	v, ok := c.Get(k)
	if !ok {
		return v, cache.ErrNotFound
	}
	return v, nil
}

// Remove deletes k from its shard.
func (c *Cache[K, V]) Remove(k K) bool { return c.shard(k).Remove(k) }

// Len returns the total number of resident entries across all shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Purge drops all entries in every shard.
func (c *Cache[K, V]) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// Shards returns the number of partitions.
func (c *Cache[K, V]) Shards() int { return len(c.shards) }

// Stats returns the wrapper-level hit/miss counters.
func (c *Cache[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// shard picks a partition by hashing the key and masking with len-1.
// len(c.shards) is guaranteed to be a power of two.
func (c *Cache[K, V]) shard(k K) cache.Cache[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}

var _ cache.Cache[string, int] = (*Cache[string, int])(nil)
