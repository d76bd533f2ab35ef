package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signalsfoundry/leo-orbit-sim/core"
)

const redisKey = "leosim:elements"

// RedisCache stores the fleet element set snapshot as a single JSON value in
// Redis, so several API instances can share one synthesized fleet.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection. A zero ttl
// stores the snapshot without expiry.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Load returns the stored snapshot, or core.ErrCacheMiss when the key is
// absent or expired.
func (c *RedisCache) Load(ctx context.Context) (*core.CachedElements, error) {
	raw, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var elems core.CachedElements
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode cached elements: %w", err)
	}
	return &elems, nil
}

// Store replaces the snapshot.
func (c *RedisCache) Store(ctx context.Context, elems *core.CachedElements) error {
	raw, err := json.Marshal(elems)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, redisKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
