package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(payload string) Entry {
	return Entry{Payload: []byte(payload), ETag: "abc123", StoredAt: time.Now().UTC()}
}

func TestL1GetPut(t *testing.T) {
	c := NewL1(8, 0)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", entry("v"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got.Payload)
	assert.Equal(t, "abc123", got.ETag)
	assert.Equal(t, 1, c.Len())
}

func TestL1EvictsAtCapacity(t *testing.T) {
	c := NewL1(2, 0)
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), entry("v"))
	}
	assert.Equal(t, 2, c.Len())

	// The two most recent keys survive.
	_, ok := c.Get("k3")
	assert.True(t, ok)
	_, ok = c.Get("k4")
	assert.True(t, ok)
	_, ok = c.Get("k0")
	assert.False(t, ok)
}

func TestL1TTLExpiry(t *testing.T) {
	c := NewL1(8, 50*time.Millisecond)
	c.Put("k", entry("v"))

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestL1HitRate(t *testing.T) {
	c := NewL1(8, 0)
	assert.Zero(t, c.HitRate())

	c.Put("k", entry("v"))
	c.Get("k")     // hit
	c.Get("other") // miss
	c.Get("k")     // hit
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)
}

func TestL1Purge(t *testing.T) {
	c := NewL1(8, 0)
	c.Put("a", entry("1"))
	c.Put("b", entry("2"))
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestLayeredWithoutL2(t *testing.T) {
	c := NewLayered(NewL1(8, 0), nil)
	ctx := context.Background()

	_, tier, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, TierNone, tier)

	c.Put(ctx, "k", entry("v"))
	got, tier, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, TierL1, tier)
	assert.Equal(t, []byte("v"), got.Payload)

	assert.True(t, c.L2Healthy())
	assert.False(t, c.HasL2())
	assert.Equal(t, 1, c.L1Len())
	assert.NoError(t, c.Close())
}
