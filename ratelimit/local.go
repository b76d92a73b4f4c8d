package ratelimit

import (
	"context"
	"time"

	leakybucket "github.com/kevinms/leakybucket-go"
)

// LocalLimiter enforces the quota with a per-client leaky bucket. The bucket
// capacity equals the quota count and it drains at count/window, so sustained
// throughput matches the quota while short bursts up to a full window are
// tolerated.
type LocalLimiter struct {
	limit     Limit
	collector *leakybucket.Collector
}

// NewLocal builds the in-process limiter.
func NewLocal(limit Limit) *LocalLimiter {
	rate := float64(limit.Count) / limit.Window.Seconds()
	return &LocalLimiter{
		limit:     limit,
		collector: leakybucket.NewCollector(rate, limit.Count, true /* deleteEmptyBuckets */),
	}
}

// Allow consumes one token from the client's bucket.
func (l *LocalLimiter) Allow(_ context.Context, clientKey string) Decision {
	d := Decision{Limit: l.limit.Count}
	if l.collector.Add(clientKey, 1) == 0 {
		rejected.Inc()
		d.Remaining = 0
		// Time for one token to drain.
		d.RetryAfter = time.Duration(float64(l.limit.Window) / float64(l.limit.Count))
		if d.RetryAfter < time.Second {
			d.RetryAfter = time.Second
		}
		return d
	}
	d.Allowed = true
	d.Remaining = l.collector.Remaining(clientKey)
	return d
}
