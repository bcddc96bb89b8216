package dashboard

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCountCacheTTL is how long cached store counts stay fresh.
// Totals drift slowly relative to page loads, so a short TTL keeps the
// dashboard honest while absorbing most count queries.
const DefaultCountCacheTTL = 30 * time.Second

// countKeyPrefix namespaces count cache keys in Redis.
const countKeyPrefix = "dashboard:count:"

// CountCache caches store count queries in Redis. It fails open: any
// Redis error is treated as a cache miss (reads) or skipped (writes)
// and logged, never surfaced to the aggregation path.
type CountCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCountCache creates a count cache. A non-positive ttl falls back
// to DefaultCountCacheTTL; a nil logger falls back to slog.Default().
func NewCountCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CountCache {
	if ttl <= 0 {
		ttl = DefaultCountCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CountCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached count for a content kind, and whether it was
// present.
func (c *CountCache) Get(ctx context.Context, kind string) (int, bool) {
	val, err := c.client.Get(ctx, countKeyPrefix+kind).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.logger.Warn("count cache read failed, treating as miss",
			"kind", kind,
			"error", err)
		return 0, false
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		c.logger.Warn("count cache held a non-numeric value, treating as miss",
			"kind", kind,
			"value", val)
		return 0, false
	}
	return n, true
}

// Set stores the count for a content kind with the configured TTL.
func (c *CountCache) Set(ctx context.Context, kind string, count int) {
	if err := c.client.Set(ctx, countKeyPrefix+kind, strconv.Itoa(count), c.ttl).Err(); err != nil {
		c.logger.Warn("count cache write failed",
			"kind", kind,
			"error", err)
	}
}
