package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces the quota as a fixed window shared across instances:
// one counter per (client, window-start), INCRed atomically and expired two
// windows out. Fixed windows admit up to 2x the quota across a boundary; that
// is acceptable for a quota meant to stop abuse rather than shape traffic.
type RedisLimiter struct {
	limit  Limit
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisClient dials a Redis instance for rate-limit state.
func NewRedisClient(addr string) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

// NewRedis builds the shared limiter on an existing client.
func NewRedis(limit Limit, rdb redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{limit: limit, rdb: rdb, prefix: "involution:rl:"}
}

// Allow increments the client's window counter. Redis errors fail open.
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) Decision {
	d := Decision{Limit: l.limit.Count}
	now := time.Now()
	windowStart := now.Truncate(l.limit.Window)
	key := fmt.Sprintf("%s%s:%d", l.prefix, clientKey, windowStart.Unix())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*l.limit.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).Warn("Rate limit backend unavailable, admitting request")
		d.Allowed = true
		d.Remaining = l.limit.Count
		return d
	}

	used := incr.Val()
	if used > l.limit.Count {
		rejected.Inc()
		d.Remaining = 0
		d.RetryAfter = time.Until(windowStart.Add(l.limit.Window))
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
		return d
	}
	d.Allowed = true
	d.Remaining = l.limit.Count - used
	return d
}
