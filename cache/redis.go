package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moodtune/logger"

	"github.com/go-redis/redis/v8"
)

const defaultOpTimeout = 2 * time.Second

// RedisCache stores opaque byte values in Redis with a per-key expiry.
type RedisCache struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCache wraps client. Each operation is bounded by a short timeout
// so a slow Redis never holds up a request for long.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, timeout: defaultOpTimeout}
}

// Get returns the value under key. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("[Cache] miss", logger.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key for ttl. A non-positive ttl keeps the key forever.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	logger.Debug("[Cache] stored",
		logger.String("key", key),
		logger.Int("dataSize", len(value)),
		logger.Duration("expiration", ttl))
	return nil
}
