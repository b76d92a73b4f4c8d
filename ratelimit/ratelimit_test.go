package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want Limit
	}{
		{"200/minute", Limit{200, time.Minute}},
		{"1/second", Limit{1, time.Second}},
		{"5000/hour", Limit{5000, time.Hour}},
		{"10/day", Limit{10, 24 * time.Hour}},
		{" 200/MINUTE ", Limit{200, time.Minute}},
	}
	for _, tc := range cases {
		got, err := ParseLimit(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseLimitRejects(t *testing.T) {
	for _, in := range []string{"", "200", "/minute", "0/minute", "-5/minute", "abc/minute", "200/fortnight"} {
		_, err := ParseLimit(in)
		assert.Error(t, err, in)
	}
}

func TestLocalLimiterExhaustsQuota(t *testing.T) {
	l := NewLocal(Limit{Count: 3, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := l.Allow(ctx, "client-a")
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, int64(3), d.Limit)
	}

	d := l.Allow(ctx, "client-a")
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.GreaterOrEqual(t, d.RetryAfter, time.Second)
}

func TestLocalLimiterIsolatesClients(t *testing.T) {
	l := NewLocal(Limit{Count: 1, Window: time.Hour})
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "client-a").Allowed)
	assert.False(t, l.Allow(ctx, "client-a").Allowed)
	// A different client still has a full bucket.
	assert.True(t, l.Allow(ctx, "client-b").Allowed)
}

func TestLocalLimiterRemainingCountsDown(t *testing.T) {
	l := NewLocal(Limit{Count: 5, Window: time.Hour})
	ctx := context.Background()

	first := l.Allow(ctx, "client-a")
	second := l.Allow(ctx, "client-a")
	require.True(t, first.Allowed)
	require.True(t, second.Allowed)
	assert.Greater(t, first.Remaining, second.Remaining)
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	// Nothing listens on this port; every pipeline round trip errors and the
	// limiter must admit the request anyway.
	rdb := NewRedisClient("127.0.0.1:1")
	defer func() { require.NoError(t, rdb.Close()) }()

	l := NewRedis(Limit{Count: 1, Window: time.Minute}, rdb)
	for i := 0; i < 3; i++ {
		d := l.Allow(context.Background(), "client-a")
		assert.True(t, d.Allowed, "request %d", i)
	}
}
