// Package cache provides the TTL key-value cache used in front of remote
// services. Values are stored JSON-encoded so any serializable type round-trips.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/mx-space/nodepress/internal/pkg/redis"
)

const disqusKeyPrefix = "nodepress:disqus:"

// Cache is a best-effort TTL store. A miss is reported as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DisqusKey namespaces a key used by the Disqus integration.
func DisqusKey(key string) string {
	return disqusKeyPrefix + key
}

// RedisCache stores entries in Redis.
type RedisCache struct {
	client *pkgredis.Client
}

func NewRedisCache(client *pkgredis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.GetBytes(ctx, key)
	if errors.Is(err, pkgredis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return c.client.Set(ctx, key, b, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key)
}
