package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache of priced product responses
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns nil when no client is configured; a nil *Cache is a no-op.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached response and whether it was present
func (c *Cache) Get(ctx context.Context, id uint) (*Response, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

// Set stores a response until its price may change, and never longer than
// the cache TTL. A zero validUntil means the price has no scheduled change.
func (c *Cache) Set(ctx context.Context, resp *Response, now, validUntil time.Time) error {
	if c == nil {
		return nil
	}
	ttl := c.ttl
	if !validUntil.IsZero() {
		if left := validUntil.Sub(now); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(resp.ID), data, ttl).Err()
}

// Invalidate drops cached responses, used whenever stock or price changes
func (c *Cache) Invalidate(ctx context.Context, ids ...uint) error {
	if c == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
