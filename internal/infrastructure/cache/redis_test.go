package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapedgit/backend/internal/domain"
)

func unreachableRedis() *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	return newRedisCacheWithClient(client, "")
}

func TestNewRedisCache(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewRedisCache(context.Background(), RedisConfig{URL: "not a url"})
		require.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := NewRedisCache(ctx, RedisConfig{URL: "redis://127.0.0.1:1/0", MaxRetries: -1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))
	})
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	c := unreachableRedis()
	defer c.Close()

	assert.Equal(t, defaultKeyPrefix, c.prefix)
	assert.Equal(t, "custom:", newRedisCacheWithClient(c.client, "custom:").prefix)
}

func TestRedisCache_UnavailableErrors(t *testing.T) {
	c := unreachableRedis()
	defer c.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := c.Get(ctx, "k"); return err }},
		{"set", func() error { return c.Set(ctx, "k", []byte("v"), time.Minute) }},
		{"delete", func() error { return c.Delete(ctx, "k") }},
		{"exists", func() error { _, err := c.Exists(ctx, "k"); return err }},
		{"set with zero ttl deletes", func() error { return c.Set(ctx, "k", []byte("v"), 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCacheUnavailable), "got %v", err)
			assert.False(t, errors.Is(err, domain.ErrCacheMiss))
		})
	}
}
