package engine

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/allergen-scan/internal/logging"
)

// Cache abstracts the Redis operations used for scan outcomes to make
// testing easier.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// RedisCache is a concrete implementation backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set writes a value to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a cached value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (e *Engine) withCacheGet(ctx context.Context, scanID, operation, cacheKey string) (string, error) {
	var result string
	err := e.retry.Execute(ctx, operation, scanID, func() error {
		value, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// retryableCacheError treats a cache miss as a terminal answer rather than a
// failure worth retrying.
func retryableCacheError(err error) bool {
	if errors.Is(err, redis.Nil) {
		return false
	}
	return logging.IsTransientError(err)
}
