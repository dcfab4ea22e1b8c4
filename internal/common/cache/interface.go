// Package cache abstracts the cache layer so business logic does not
// depend on a concrete store.
package cache

import (
	"context"
	"time"
)

// Cache defines the operations this service needs from a cache.
type Cache interface {
	// Get retrieves the value for the given key; missing keys return "".
	Get(ctx context.Context, key string) (string, error)

	// Set stores a key-value pair with optional TTL; ttl 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// SetNX sets the value only if the key does not exist (atomic).
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) error

	// TryLock attempts to acquire a keyed lock.
	// Returns true if the lock was acquired, false otherwise.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unlock releases a keyed lock.
	Unlock(ctx context.Context, key string) error

	// ZAdd adds a member with a score to a sorted set.
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZScore returns the score of a member; missing members return 0.
	ZScore(ctx context.Context, key, member string) (float64, error)

	// Ping verifies the cache connection is alive.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// NullCacheValue is a sentinel representing null/empty data in cache.
// Caching the absence of data prevents cache penetration.
const NullCacheValue = "$NULL$"

// GetWithCached implements the cache-aside pattern with null value caching.
// On a miss it calls fn, stores the result, and caches empty results for
// emptyTTL so repeated lookups of absent records stay off the database.
func GetWithCached[T any](
	ctx context.Context,
	cache Cache,
	key string,
	ttl time.Duration,
	emptyTTL time.Duration,
	isEmpty func(T) bool,
	marshal func(T) string,
	unmarshal func(string) (T, error),
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
		if cached == NullCacheValue {
			return zero, nil
		}
		if result, err := unmarshal(cached); err == nil {
			return result, nil
		}
	}

	data, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	if isEmpty(data) {
		_ = cache.Set(ctx, key, NullCacheValue, emptyTTL)
		return zero, nil
	}

	_ = cache.Set(ctx, key, marshal(data), ttl)
	return data, nil
}
