package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"museum-visits/internal/logger"
)

const (
	reportKeyPrefix  = "reports"
	reportVersionKey = "reports:version"
)

// RedisCache keeps computed reports in Redis. Every key embeds a version
// counter; Invalidate bumps the counter so stale reports are never read and
// simply expire.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl, Logger: log}
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.Client.Get(ctx, reportVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Key resolves key against the current cache version. The same resolved
// key must be used for the Get and Set of one request, so a report computed
// before an Invalidate is never stored under the newer version.
func (c *RedisCache) Key(ctx context.Context, key string) (string, bool) {
	v, err := c.version(ctx)
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read report version: %v", err))
		return "", false
	}
	return fmt.Sprintf("%s:v%d:%s", reportKeyPrefix, v, key), true
}

// Get loads the report stored under a resolved key into dst, reporting
// whether it was found.
func (c *RedisCache) Get(ctx context.Context, fullKey string, dst any) bool {
	raw, err := c.Client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read %s: %v", fullKey, err))
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Discarding corrupt entry %s: %v", fullKey, err))
		return false
	}
	c.Logger.Debug("CACHE", fmt.Sprintf("Hit %s", fullKey))
	return true
}

// Set stores a computed report under a resolved key
func (c *RedisCache) Set(ctx context.Context, fullKey string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to encode %s: %v", fullKey, err))
		return
	}

	if err := c.Client.Set(ctx, fullKey, raw, c.TTL).Err(); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to write %s: %v", fullKey, err))
	}
}

// Invalidate makes every previously cached report unreachable
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.Client.Incr(ctx, reportVersionKey).Err(); err != nil {
		return fmt.Errorf("bump report cache version: %w", err)
	}
	c.Logger.Debug("CACHE", "Report cache invalidated")
	return nil
}
