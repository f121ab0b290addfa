package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key builders shared by the handlers that read and invalidate them
func DonorDonationsKey(address string) string { return "donations:donor:" + address }
func NGODonationsKey(email string) string     { return "donations:ngo:" + email }
func FundingKey(email string) string          { return "funding:ngo:" + email }

const (
	ApprovedProjectsKey = "projects:approved" // Public project list
	ApprovedNGOsKey     = "ngos:approved"     // Public NGO list
)

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client means caching is disabled and always misses.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}
