package cache

import (
	"context"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var l2Errors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "involution_cache_l2_errors_total",
	Help: "Redis tier operations that failed and were treated as misses.",
})

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// L2 is the shared Redis tier. Every operation fails open: a Redis error is
// reported as a miss (or a dropped write), never propagated to the caller.
type L2 struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string

	// unavailable flips on the first error and back off the first success,
	// gating repeated error logs to transitions only.
	unavailable atomic.Bool
}

// NewL2 connects the Redis tier. The connection is verified lazily; a Redis
// that is down at startup simply yields misses until it recovers.
func NewL2(addr, password string, db int, ttl time.Duration) *L2 {
	return &L2{
		rdb: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		}),
		ttl:    ttl,
		prefix: "involution:resp:",
	}
}

// Get fetches an entry, fail-open.
func (c *L2) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		cacheOps.WithLabelValues(string(TierL2), "miss").Inc()
		c.recovered()
		return Entry{}, false
	}
	if err != nil {
		c.failed(err)
		return Entry{}, false
	}
	var e Entry
	if err := codec.Unmarshal(raw, &e); err != nil {
		// Corrupt entry; drop it and treat as a miss.
		c.rdb.Del(ctx, c.prefix+key)
		cacheOps.WithLabelValues(string(TierL2), "miss").Inc()
		return Entry{}, false
	}
	cacheOps.WithLabelValues(string(TierL2), "hit").Inc()
	c.recovered()
	return e, true
}

// Put stores an entry, fail-open.
func (c *L2) Put(ctx context.Context, key string, e Entry) {
	raw, err := codec.Marshal(e)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.failed(err)
		return
	}
	cacheOps.WithLabelValues(string(TierL2), "set").Inc()
	c.recovered()
}

// Healthy reports whether the last Redis operation succeeded.
func (c *L2) Healthy() bool {
	return !c.unavailable.Load()
}

// Close releases the client.
func (c *L2) Close() error {
	return c.rdb.Close()
}

func (c *L2) failed(err error) {
	l2Errors.Inc()
	cacheOps.WithLabelValues(string(TierL2), "error").Inc()
	if c.unavailable.CompareAndSwap(false, true) {
		log.WithError(err).Warn("Redis cache tier unavailable, serving without it")
	}
}

func (c *L2) recovered() {
	if c.unavailable.CompareAndSwap(true, false) {
		log.Info("Redis cache tier recovered")
	}
}
