// Package cache stores JSON encoded responses in redis. A nil *Cache is valid
// and never hits.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache wraps one redis DB
type Cache struct {
	client *redis.Client
	prefix string
}

// New creates a cache; keys are prefixed to share the DB with other users
func New(client *redis.Client, prefix string) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, prefix: prefix}
}

// GetJSON reads key into dest and reports whether the key existed
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key for ttl
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+key, b, ttl).Err()
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}
