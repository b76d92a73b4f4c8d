package cache

import "context"

// Layered composes the tiers: reads check L1 then L2, promoting L2 hits into
// L1; writes go to both. The L2 tier is optional.
type Layered struct {
	l1 *L1
	l2 *L2
}

// NewLayered builds the composite cache. l2 may be nil.
func NewLayered(l1 *L1, l2 *L2) *Layered {
	return &Layered{l1: l1, l2: l2}
}

// Get returns the entry for key and the tier it was found in.
func (c *Layered) Get(ctx context.Context, key string) (Entry, Tier, bool) {
	if e, ok := c.l1.Get(key); ok {
		return e, TierL1, true
	}
	if c.l2 != nil {
		if e, ok := c.l2.Get(ctx, key); ok {
			c.l1.Put(key, e)
			return e, TierL2, true
		}
	}
	return Entry{}, TierNone, false
}

// Put writes the entry through both tiers.
func (c *Layered) Put(ctx context.Context, key string, e Entry) {
	c.l1.Put(key, e)
	if c.l2 != nil {
		c.l2.Put(ctx, key, e)
	}
}

// L1Len reports the in-process entry count.
func (c *Layered) L1Len() int {
	return c.l1.Len()
}

// L1HitRate reports the in-process lifetime hit rate.
func (c *Layered) L1HitRate() float64 {
	return c.l1.HitRate()
}

// L2Healthy reports the Redis tier state for /healthz; true when no L2 is
// configured.
func (c *Layered) L2Healthy() bool {
	return c.l2 == nil || c.l2.Healthy()
}

// HasL2 reports whether a Redis tier is configured.
func (c *Layered) HasL2() bool {
	return c.l2 != nil
}

// Close releases tier resources.
func (c *Layered) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}
