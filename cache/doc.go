// Package cache defines the uniform contract shared by the polycache
// eviction engines, together with the plumbing that layers on top of any
// engine: sentinel errors, metrics hooks, and singleflight loading.
//
// Engines
//
//   - lru:  recency-ordered bounded map, O(1) move-to-front on hit.
//   - lruk: LRU with a two-tier admission filter; a key enters the main
//     cache only after K references, so one-shot scans cannot displace
//     hot entries.
//   - lfu:  frequency-bucketed bounded map with periodic halving-based
//     aging, so ancient high-frequency entries cannot shadow the current
//     workload forever.
//   - arc:  adaptive replacement cache; a recency arm and a frequency arm
//     share the capacity, and ghost lists of recently evicted keys drive
//     incremental capacity transfer between the arms.
//
// Every engine implements Cache[K, V] so callers can swap policies
// without code changes:
//
//	var c cache.Cache[string, []byte]
//	c = lru.New[string, []byte](10_000)
//	c = lfu.New[string, []byte](10_000, 10)
//	c = arc.New[string, []byte](10_000, 2)
//
// Lookup comes in two forms with identical side effects: the
// presence-flag form and the error form.
//
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	v, err := c.Fetch("a") // err == cache.ErrNotFound on miss
//
// Loading
//
// Loading wraps an engine with a loader function; concurrent loads for
// the same key are coalesced so the loader runs at most once.
//
//	l := cache.NewLoading(c, func(ctx context.Context, k string) ([]byte, error) {
//	    return fetchFromDB(ctx, k)
//	})
//	v, err := l.GetOrLoad(ctx, "key")
//
// Metrics
//
// Engines accept a Metrics implementation receiving Hit/Miss/Evict/Size
// signals; NoopMetrics is the default. The metrics/prom package provides
// a Prometheus adapter.
//
// Thread-safety & complexity
//
// Each engine instance holds one mutex for the entirety of every public
// operation; concurrency across instances is unrestricted. Operations
// run in amortized O(1) — LFU aging is O(n) and runs whenever a lookup
// pushes the average reference count per resident entry above
// maxAverage. Callers receive value copies on Get; engines
// never hand out interior references.
//
// For partitioning a single logical cache across multiple engine
// instances to reduce lock contention, see the sharded package.
package cache
