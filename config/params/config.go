// Package params holds the immutable process configuration. Built once at
// startup from flags and environment, then read-only.
package params

import "time"

// Config is the full service configuration.
type Config struct {
	HTTPHost string
	HTTPPort string

	KernelBundle string
	KernelsPath  string

	Workers        int
	QueueHighWater int
	QueueSoftLimit int

	CacheL1Size int
	CacheTTL    time.Duration
	CacheL2URL  string
	CacheL2On   bool

	RateLimitOn   bool
	RateLimitRule string

	PatchesPath   string
	AyanamshaPath string

	DefaultParityProfile string
	ComputeDeadline      time.Duration
	ShutdownGrace        time.Duration

	AllowedOrigins []string
}

// DefaultConfig returns the configuration used when no flag or environment
// key overrides a value.
func DefaultConfig() *Config {
	return &Config{
		HTTPHost:             "127.0.0.1",
		HTTPPort:             "8080",
		KernelBundle:         "default",
		KernelsPath:          "./kernels",
		Workers:              4,
		QueueHighWater:       64,
		QueueSoftLimit:       16,
		CacheL1Size:          4096,
		CacheTTL:             10 * time.Minute,
		RateLimitOn:          true,
		RateLimitRule:        "200/minute",
		DefaultParityProfile: "strict_history",
		ComputeDeadline:      5 * time.Second,
		ShutdownGrace:        10 * time.Second,
	}
}
