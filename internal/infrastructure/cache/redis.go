package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/scrapedgit/backend/internal/domain"
)

const defaultKeyPrefix = "scrapedgit:"

// RedisConfig holds configuration for the redis-backed cache
type RedisConfig struct {
	URL      string
	Prefix   string
	PoolSize int
	// MaxRetries is passed to the client; -1 disables retries
	MaxRetries int
}

// RedisCache implements domain.CacheRepository on top of redis
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "parse redis url")
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxRetries != 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(domain.ErrCacheUnavailable, err.Error())
	}

	return newRedisCacheWithClient(client, cfg.Prefix), nil
}

func newRedisCacheWithClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves a value from redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, eris.Wrapf(domain.ErrCacheUnavailable, "redis get %s: %v", key, err)
	}
	return value, nil
}

// Set stores a value with TTL. A non-positive TTL removes the key.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return c.Delete(ctx, key)
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return eris.Wrapf(domain.ErrCacheUnavailable, "redis set %s: %v", key, err)
	}
	return nil
}

// Delete removes a key from redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return eris.Wrapf(domain.ErrCacheUnavailable, "redis del %s: %v", key, err)
	}
	return nil
}

// Exists reports whether a key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+key).Result()
	if err != nil {
		return false, eris.Wrapf(domain.ErrCacheUnavailable, "redis exists %s: %v", key, err)
	}
	return n > 0, nil
}

// DeleteByPrefix removes every key starting with the given prefix
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, eris.Wrapf(domain.ErrCacheUnavailable, "redis del %s: %v", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, eris.Wrapf(domain.ErrCacheUnavailable, "redis scan: %v", err)
	}
	return deleted, nil
}

// Close releases the underlying connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
