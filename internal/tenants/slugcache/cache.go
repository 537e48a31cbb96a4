// Package slugcache caches tenant slug lookups in Redis. Slug resolution sits
// on the login hot path, and tenants change rarely, so a short-TTL cache-aside
// keeps the tenants table out of every unauthenticated request.
package slugcache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tenant:slug:"

// Cache is a Redis-backed slug to tenant-id cache. A nil Cache is a no-op,
// so deployments without Redis degrade to direct lookups.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a slug cache over the given Redis client.
func New(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached tenant id for slug, if present.
func (c *Cache) Get(ctx context.Context, slug string) (uuid.UUID, bool) {
	if c == nil || c.client == nil {
		return uuid.Nil, false
	}

	value, err := c.client.Get(ctx, keyPrefix+slug).Result()
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		// Corrupt entry; drop it rather than serve garbage.
		_ = c.client.Del(ctx, keyPrefix+slug).Err()
		return uuid.Nil, false
	}
	return id, true
}

// Set stores the tenant id for slug with the configured TTL.
func (c *Cache) Set(ctx context.Context, slug string, id uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, keyPrefix+slug, id.String(), c.ttl).Err()
}

// Invalidate removes the cached entry for slug (e.g., on deactivation).
func (c *Cache) Invalidate(ctx context.Context, slug string) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, keyPrefix+slug).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
