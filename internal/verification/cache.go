package verification

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "certmint/internal/platform/redis"
)

const cacheTTL = 5 * time.Minute

// cacheCommands is the slice of the redis API the cache touches; tests fake
// it with the go-redis result helpers.
type cacheCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache keeps resolved verification results in Redis for a short window.
// Certificates are immutable, but the joined user record is not, so the TTL
// stays small. A nil Cache is a no-op.
type Cache struct {
	client cacheCommands
	logger *slog.Logger
}

func NewCache(client *platformredis.Client, logger *slog.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Get(ctx context.Context, certID string) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	raw, err := c.client.Get(ctx, cacheKey(certID)).Bytes()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.WarnContext(ctx, "corrupt verification cache entry", "certificate_id", certID, "error", err)
		return Result{}, false
	}
	return result, true
}

func (c *Cache) Set(ctx context.Context, certID string, result Result) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(certID), raw, cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache write failed", "certificate_id", certID, "error", err)
	}
}

func cacheKey(certID string) string {
	return "verification:" + certID
}
