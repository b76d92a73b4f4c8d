// Package cache provides the two-tier response cache: a hot in-process LRU
// (L1) in front of an optional shared Redis tier (L2). Keys are response
// fingerprints; values are fully serialized response payloads, so a hit
// bypasses both computation and serialization.
package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "cache")

var (
	cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_cache_operations_total",
		Help: "Cache operations by tier and result.",
	}, []string{"tier", "op"})
	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_cache_size_entries",
		Help: "Number of entries currently resident in the in-process tier.",
	})
	hitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_cache_hit_rate",
		Help: "Lifetime in-process hit rate, in [0, 1].",
	})
)

// Entry is one cached response.
type Entry struct {
	Payload  []byte    `json:"payload"`
	ETag     string    `json:"etag"`
	StoredAt time.Time `json:"stored_at"`
}

// Tier labels where a hit came from, surfaced in the X-Cache header.
type Tier string

const (
	TierNone Tier = "miss"
	TierL1   Tier = "l1"
	TierL2   Tier = "l2"
)
