package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching on top of Client
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get loads key into dest. It reports false on a miss or when Redis is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores value under key with ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// ProfileKey is the cache key for a company profile
func ProfileKey(ticker string) string {
	return "profile:" + ticker
}
