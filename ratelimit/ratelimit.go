// Package ratelimit enforces per-client request quotas. Two backends share
// one interface: an in-process leaky bucket for single-instance deployments,
// and a Redis fixed window when instances must share a budget.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "ratelimit")

var rejected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "involution_ratelimit_rejections_total",
	Help: "Requests rejected by the rate limiter.",
})

// Limit is a parsed quota: Count requests per Window.
type Limit struct {
	Count  int64
	Window time.Duration
}

// ParseLimit parses the "<count>/<unit>" quota syntax, e.g. "200/minute".
func ParseLimit(s string) (Limit, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return Limit{}, errors.Errorf("rate limit %q: want <count>/<unit>", s)
	}
	var count int64
	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return Limit{}, errors.Errorf("rate limit %q: bad count", s)
		}
		count = count*10 + int64(c-'0')
	}
	if count <= 0 {
		return Limit{}, errors.Errorf("rate limit %q: count must be positive", s)
	}
	var window time.Duration
	switch strings.ToLower(parts[1]) {
	case "second":
		window = time.Second
	case "minute":
		window = time.Minute
	case "hour":
		window = time.Hour
	case "day":
		window = 24 * time.Hour
	default:
		return Limit{}, errors.Errorf("rate limit %q: unknown unit %q", s, parts[1])
	}
	return Limit{Count: count, Window: window}, nil
}

// Decision is the outcome for one request, carrying everything the HTTP layer
// needs for Retry-After and the X-RateLimit-* headers.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decides whether a client request may proceed. Implementations fail
// open: infrastructure trouble admits the request.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) Decision
}
