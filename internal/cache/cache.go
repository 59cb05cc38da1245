// Package cache stores JSON-encoded values in Redis. A nil *Redis is a valid
// cache that never hits, so callers need no special case when Redis is disabled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache is the subset of caching used by the services.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Redis is a Cache backed by a go-redis client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

// Get decodes the value stored at key into dest and reports whether it was found.
func (c *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *Redis) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
