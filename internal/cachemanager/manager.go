// Package cachemanager holds the session caches for thumbnails and scene
// artifacts. Entries normally live for the whole process.
package cachemanager

import (
	"context"
	"time"
)

// NoExpiration keeps an entry until it is deleted or the cache is flushed.
const NoExpiration time.Duration = -1

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Len() int
	Flush(ctx context.Context) error
}
