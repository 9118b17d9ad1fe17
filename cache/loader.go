package cache

import (
	"context"

	"github.com/IvanBrykalov/polycache/internal/singleflight"
)

// LoaderFunc fetches a value for a key on cache miss.
type LoaderFunc[K comparable, V any] func(ctx context.Context, k K) (V, error)

// Loading decorates any engine with miss-time loading. Concurrent loads
// for the same key are coalesced (singleflight): exactly one caller runs
// the loader, the rest wait for the shared result.
//
// Loading embeds the wrapped Cache, so it satisfies Cache[K, V] itself.
type Loading[K comparable, V any] struct {
	Cache[K, V]

	loader LoaderFunc[K, V]
	sf     singleflight.Group[K, V]
}

// NewLoading wraps c with the given loader. A nil loader is allowed;
// GetOrLoad then degrades to returning ErrNoLoader on miss.
func NewLoading[K comparable, V any](c Cache[K, V], loader LoaderFunc[K, V]) *Loading[K, V] {
	return &Loading[K, V]{Cache: c, loader: loader}
}

// GetOrLoad returns the value for k; on miss it loads via the loader and
// stores the result. Cancelling ctx unblocks only the waiting caller,
// not the in-flight load.
func (l *Loading[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, ok := l.Get(k); ok {
		return v, nil
	}
	if l.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	// singleflight: exactly one real load for the key
	return l.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := l.Get(k); ok {
			return v, nil
		}
		v, err := l.loader(ctx, k)
		if err == nil {
			l.Set(k, v)
		}
		return v, err
	})
}
