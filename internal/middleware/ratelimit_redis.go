package middleware

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// redisRateLimitPrefix namespaces rate limit keys in Redis.
const redisRateLimitPrefix = "ratelimit:"

// RedisRateLimitStore implements RateLimitStore backed by Redis, using a
// fixed window counter (INCR + EXPIRE). State is shared across API
// instances, so limits hold under horizontal scaling.
//
// If Redis is unavailable the store fails open: requests are allowed and
// the error is counted via metrics. A broken cache should degrade
// throughput limits, not take the API down.
type RedisRateLimitStore struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
// logger and metrics may be nil.
func NewRedisRateLimitStore(client *redis.Client, logger *slog.Logger, metrics *Metrics) *RedisRateLimitStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRateLimitStore{
		client:  client,
		logger:  logger,
		metrics: metrics,
	}
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := redisRateLimitPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.failOpen(ctx, key, err)
		return true, 0
	}

	// First request in the window starts the expiry clock.
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.failOpen(ctx, key, err)
			return true, 0
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// Counter exists but expiry is unknown or missing; block for a
		// conservative one second rather than forever.
		return false, 1
	}
	return false, int(ttl.Seconds())
}

func (s *RedisRateLimitStore) failOpen(ctx context.Context, key string, err error) {
	s.logger.WarnContext(ctx, "rate limit redis error, failing open",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
}
