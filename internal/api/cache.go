package api

import (
	"context" // Context for Redis operations
	"time"    // Time durations

	"ngo_tracker/internal/utils" // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// Cache is the optional Redis response cache. A nil client disables it.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

// load serves key from the cache or calls fetch and caches its result.
// Cache failures are logged and fall through to fetch.
func load[T any](ctx context.Context, cache Cache, key string, fetch func() (T, error)) (T, bool, error) {
	var value T
	found, err := utils.GetCache(ctx, cache.Client, key, &value) // Try to get cached response
	if err == nil && found {
		return value, true, nil
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	}
	value, err = fetch()
	if err != nil {
		return value, false, err
	}
	ttl := cache.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second // Default lifetime
	}
	if err := utils.SetCache(ctx, cache.Client, key, value, ttl); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
	return value, false, nil
}

// invalidate drops keys after a write
func (c Cache) invalidate(ctx context.Context, keys ...string) {
	if err := utils.DeleteCache(ctx, c.Client, keys...); err != nil {
		logrus.WithFields(logrus.Fields{"keys": keys, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}
