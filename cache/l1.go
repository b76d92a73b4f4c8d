package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// L1 is the in-process tier: a size-bounded LRU whose entries also expire
// after a fixed TTL. Safe for concurrent use.
type L1 struct {
	lru *expirable.LRU[string, Entry]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewL1 builds the in-process tier. A zero TTL disables expiry and leaves
// eviction purely to the size bound.
func NewL1(maxEntries int, ttl time.Duration) *L1 {
	c := &L1{}
	c.lru = expirable.NewLRU[string, Entry](maxEntries, func(string, Entry) {
		cacheOps.WithLabelValues(string(TierL1), "evict").Inc()
		cacheSize.Dec()
	}, ttl)
	return c
}

// Get returns the entry for key, if resident and unexpired.
func (c *L1) Get(key string) (Entry, bool) {
	e, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
		cacheOps.WithLabelValues(string(TierL1), "hit").Inc()
	} else {
		c.misses.Add(1)
		cacheOps.WithLabelValues(string(TierL1), "miss").Inc()
	}
	hitRate.Set(c.HitRate())
	return e, ok
}

// Put inserts or refreshes an entry.
func (c *L1) Put(key string, e Entry) {
	if !c.lru.Contains(key) {
		cacheSize.Inc()
	}
	c.lru.Add(key, e)
	cacheOps.WithLabelValues(string(TierL1), "set").Inc()
}

// Len returns the resident entry count.
func (c *L1) Len() int {
	return c.lru.Len()
}

// HitRate returns hits/(hits+misses) over the process lifetime, in [0, 1].
func (c *L1) HitRate() float64 {
	h, m := c.hits.Load(), c.misses.Load()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// Purge drops every entry. Used by tests and the admin flush path.
func (c *L1) Purge() {
	c.lru.Purge()
}
