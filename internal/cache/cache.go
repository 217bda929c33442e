// Package cache stores JSON encoded report values with a lifetime.
package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Matching redis.Nil
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is a key/value store for computed reports
type Cache interface {
	// Get unmarshals the value stored under key into dest and reports whether
	// the key existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Redis is a Cache backed by a Redis server
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an existing client
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Get retrieves a value from Redis and unmarshals it into dest
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// Set stores value as JSON with the given TTL
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return r.rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// Delete removes keys from Redis
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// Nop never stores anything. It is used when no Redis server is configured.
type Nop struct{}

// Get always misses
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set discards the value
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

// Delete does nothing
func (Nop) Delete(context.Context, ...string) error { return nil }
