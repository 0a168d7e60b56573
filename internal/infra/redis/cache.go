// Package redis provides the Redis-backed analysis cache.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scanBatch = 200

// Cache implements domain.Cache on Redis. All keys are namespaced as
// "<keyPrefix>:<key>".
type Cache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

// NewCache creates a new Redis cache instance.
func NewCache(client *redis.Client, logger *zap.Logger, keyPrefix string) *Cache {
	return &Cache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

// Get returns nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("cache hit", zap.String("key", key), zap.Int("bytes", len(data)))
	return data, nil
}

// Set stores value with ttl. A zero ttl means no expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.buildKey(key), value, ttl).Err(); err != nil {
		c.logger.Error("cache set failed",
			zap.String("key", key),
			zap.Int("bytes", len(value)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		c.logger.Error("cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// DeleteMatching removes every key matching a glob pattern below the prefix,
// e.g. "comparison:*UC123*". It returns the number of keys removed.
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	fullPattern := c.buildKey(pattern)
	iter := c.client.Scan(ctx, 0, fullPattern, scanBatch).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("cache scan failed", zap.String("pattern", fullPattern), zap.Error(err))
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("cache delete failed", zap.Int("key_count", len(keys)), zap.Error(err))
		return 0, err
	}
	c.logger.Debug("cache keys removed", zap.String("pattern", fullPattern), zap.Int("key_count", len(keys)))
	return len(keys), nil
}

// Clear removes every key under the prefix.
func (c *Cache) Clear(ctx context.Context) error {
	n, err := c.DeleteMatching(ctx, "*")
	if err != nil {
		return err
	}
	c.logger.Info("cache cleared", zap.Int("key_count", n))
	return nil
}

func (c *Cache) buildKey(key string) string {
	return c.keyPrefix + ":" + key
}
