// Package cache implements the read-through side cache in front of the store.
// Entries are advisory only: every failure here degrades to a store read and
// is never surfaced to the caller.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/playforge/gamebank/internal/logger"
)

// Cache defines the get/set/delete contract used by the transfer engine.
// Get reports whether the key was found and decoded; Set and Delete are
// best-effort.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Delete(ctx context.Context, keys ...string)
	Close() error
}

// BalanceKey is the cache key for a user's balance
func BalanceKey(userID uint64) string {
	return fmt.Sprintf("balance:%d", userID)
}

// BalanceHistoryKey is the cache key for a user's balance history
func BalanceHistoryKey(userID uint64) string {
	return fmt.Sprintf("balance:history:%d", userID)
}

// ItemKey is the cache key for an item
func ItemKey(itemID uint64) string {
	return fmt.Sprintf("item:%d", itemID)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Cache backed by Redis. Values are JSON-encoded and
// expire after ttl; expiry is a staleness bound, not a correctness mechanism.
func NewRedisCache(addr, password string, db int, ttl time.Duration) Cache {
	return &redisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// NewRedisCacheFromClient wraps an existing Redis client (used by tests)
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) bool {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WarnCtx(ctx, "cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		logger.WarnCtx(ctx, "cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		c.Delete(ctx, key)
		return false
	}
	return true
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		logger.WarnCtx(ctx, "cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.WarnCtx(ctx, "cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.WarnCtx(ctx, "cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
