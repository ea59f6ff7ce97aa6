// Package cache is an optional Redis-backed cache for completion responses,
// keyed by model and sanitized prompt. The service runs fine without it; a
// cache failure is never allowed to fail a request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/superio007/futureblink-backend/internal/shared/redis"
)

type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a cache over an established Redis client.
func New(redisClient *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redisClient, ttl: ttl}
}

// key hashes (model, prompt) into a deterministic cache key.
func key(model, prompt string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "completion:" + hex.EncodeToString(hash[:])
}

// Get returns the cached completion for prompt, if any.
func (c *Cache) Get(ctx context.Context, model, prompt string) (string, bool) {
	val, err := c.redis.Get(ctx, key(model, prompt))
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a completion. Errors are swallowed: the cache is best-effort.
func (c *Cache) Set(ctx context.Context, model, prompt, response string) {
	_ = c.redis.Set(ctx, key(model, prompt), response, c.ttl)
}
