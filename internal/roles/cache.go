package roles

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "roles:current:"

// Cache holds recently resolved role assignments in Redis. Lookups fall
// through to the store on any cache failure; the cache is an optimisation,
// never the source of truth.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached role for the identity. The second return is false
// on a miss or any cache error.
func (c *Cache) Get(ctx context.Context, identityID string) (Role, bool) {
	if c == nil || c.client == nil {
		return RoleUnassigned, false
	}
	raw, err := c.client.Get(ctx, cacheKeyPrefix+identityID).Result()
	if err != nil {
		return RoleUnassigned, false
	}
	role, err := ParseRole(raw)
	if err != nil {
		return RoleUnassigned, false
	}
	return role, true
}

// Put stores the role for the identity with the configured TTL.
func (c *Cache) Put(ctx context.Context, identityID string, role Role) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, cacheKeyPrefix+identityID, string(role), c.ttl).Err()
}

// Invalidate drops the cached role for the identity.
func (c *Cache) Invalidate(ctx context.Context, identityID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKeyPrefix+identityID).Err()
}
