package appconfig

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache backs CachedResolver with Redis. Cache failures degrade to the
// underlying resolver; they never fail a session.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCache builds a RedisCache on an existing client.
func NewRedisCache(client *redis.Client, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
