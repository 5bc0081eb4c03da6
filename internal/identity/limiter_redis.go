package identity

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a shared sliding-window-by-bucket rate limiter backed by
// Redis INCR+EXPIRE, so multiple server instances share one count per api
// key. Any Redis error degrades to permissive (always-allow) rather than
// failing the request, and bumps Degraded for observability.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	degraded int64
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, apiKeyID string, limit int) (bool, error) {
	window := time.Now().Unix() / 60
	key := fmt.Sprintf("%s:%s:%d", l.prefix, apiKeyID, window)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		atomic.AddInt64(&l.degraded, 1)
		logger.Warnf(ctx, "rate limiter degraded, permitting request: %v", err)
		return true, nil
	}
	if count == 1 {
		l.client.Expire(ctx, key, 2*time.Minute)
	}
	return count <= int64(limit), nil
}

// DegradedCount returns how many times Redis failures forced a permissive
// decision, for metrics/alerting.
func (l *RedisLimiter) DegradedCount() int64 {
	return atomic.LoadInt64(&l.degraded)
}
