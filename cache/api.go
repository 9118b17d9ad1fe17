package cache

// Cache is the uniform contract implemented by every eviction engine
// (lru, lruk, lfu, arc). All methods are safe for concurrent use; each
// engine instance serializes its operations behind one mutex.
//
// Typical complexity is amortized O(1): a map lookup plus constant-time
// adjustments of the engine's ordered structures.
type Cache[K comparable, V any] interface {
	// Set inserts or overwrites k→v and updates replacement metadata.
	// It is a silent no-op when the engine was built with zero capacity.
	Set(k K, v V)

	// Get returns the value for k and a presence flag. On hit, the
	// entry's recency/frequency metadata is updated. A miss may still
	// update engine bookkeeping: LRU-K reference counts, LFU aging
	// pressure, and ARC ghost-driven partition moves (which can evict
	// residents).
	Get(k K) (V, bool)

	// Fetch is the value-returning form of Get: it fails with
	// ErrNotFound on miss and otherwise has identical side effects.
	Fetch(k K) (V, error)

	// Remove deletes k if present and returns true on success.
	// Replacement metadata of other entries is untouched.
	Remove(k K) bool

	// Len returns the number of resident entries.
	Len() int

	// Purge drops every entry and resets replacement state; ARC keeps
	// its current arm partition.
	Purge()
}
