package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache fills misses by calling fn. Failed calls are not cached,
// so a later Get retries them.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
}

func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache: cache,
		fn:    fn,
	}
}

func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Peek returns a cached value without calling fn.
func (r *ReadThroughCache[K, V, I]) Peek(ctx context.Context, key K) (V, bool) {
	return r.cache.Get(ctx, key)
}
