// Package flags defines the command-line and environment configuration
// surface of the involution server.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// HTTPHostFlag sets the listen address.
	HTTPHostFlag = &cli.StringFlag{
		Name:    "http-host",
		Usage:   "Host on which the HTTP server listens",
		Value:   "127.0.0.1",
		EnvVars: []string{"HTTP_HOST"},
	}
	// HTTPPortFlag sets the listen port.
	HTTPPortFlag = &cli.StringFlag{
		Name:    "http-port",
		Usage:   "Port on which the HTTP server listens",
		Value:   "8080",
		EnvVars: []string{"HTTP_PORT"},
	}
	// KernelBundleFlag names the kernel bundle to load.
	KernelBundleFlag = &cli.StringFlag{
		Name:    "kernel-bundle",
		Usage:   "Name of the ephemeris kernel bundle to load",
		Value:   "default",
		EnvVars: []string{"KERNEL_BUNDLE"},
	}
	// KernelsPathFlag points at the bundle root directory.
	KernelsPathFlag = &cli.StringFlag{
		Name:    "kernels-path",
		Usage:   "Filesystem root containing kernel bundles",
		Value:   "./kernels",
		EnvVars: []string{"KERNELS_PATH"},
	}
	// WorkersFlag sizes the compute pool.
	WorkersFlag = &cli.IntFlag{
		Name:    "workers",
		Usage:   "Number of compute workers",
		Value:   4,
		EnvVars: []string{"WORKERS"},
	}
	// QueueHighWaterFlag bounds the compute queue.
	QueueHighWaterFlag = &cli.IntFlag{
		Name:    "queue-high-water",
		Usage:   "Queue depth at which new requests are shed with 503",
		Value:   64,
		EnvVars: []string{"QUEUE_HIGH_WATER"},
	}
	// CacheL1SizeFlag bounds the in-process cache.
	CacheL1SizeFlag = &cli.IntFlag{
		Name:    "cache-l1-size",
		Usage:   "Maximum entries in the in-process response cache",
		Value:   4096,
		EnvVars: []string{"CACHE_L1_SIZE"},
	}
	// CacheTTLSecondsFlag sets entry lifetime.
	CacheTTLSecondsFlag = &cli.IntFlag{
		Name:    "cache-ttl-seconds",
		Usage:   "Response cache entry TTL in seconds",
		Value:   600,
		EnvVars: []string{"CACHE_TTL_SECONDS"},
	}
	// CacheL2URLFlag points at the shared cache.
	CacheL2URLFlag = &cli.StringFlag{
		Name:    "cache-l2-url",
		Usage:   "Redis address (host:port) for the shared response cache",
		EnvVars: []string{"CACHE_L2_URL"},
	}
	// CacheL2EnabledFlag toggles the shared cache.
	CacheL2EnabledFlag = &cli.BoolFlag{
		Name:    "cache-l2-enabled",
		Usage:   "Enable the shared Redis cache tier",
		EnvVars: []string{"CACHE_L2_ENABLED"},
	}
	// RateLimitEnabledFlag toggles the limiter.
	RateLimitEnabledFlag = &cli.BoolFlag{
		Name:    "ratelimit-enabled",
		Usage:   "Enable per-client rate limiting",
		Value:   true,
		EnvVars: []string{"RATELIMIT_ENABLED"},
	}
	// RateLimitRuleFlag sets the quota.
	RateLimitRuleFlag = &cli.StringFlag{
		Name:    "ratelimit-rule",
		Usage:   "Per-client quota, e.g. 200/minute",
		Value:   "200/minute",
		EnvVars: []string{"RATELIMIT_RULE"},
	}
	// TimeResolverPatchesFlag points at the historical patch rules file.
	TimeResolverPatchesFlag = &cli.StringFlag{
		Name:    "time-resolver-patches",
		Usage:   "Path to the historical timezone patch rules JSON file",
		EnvVars: []string{"TIME_RESOLVER_PATCHES"},
	}
	// AyanamshaRegistryFlag points at the ayanamsha registry file.
	AyanamshaRegistryFlag = &cli.StringFlag{
		Name:    "ayanamsha-registry",
		Usage:   "Path to the ayanamsha registry YAML file",
		EnvVars: []string{"AYANAMSHA_REGISTRY"},
	}
	// ParityProfileDefaultFlag sets the fallback parity profile.
	ParityProfileDefaultFlag = &cli.StringFlag{
		Name:    "parity-profile-default",
		Usage:   "Parity profile used when a request names none",
		Value:   "strict_history",
		EnvVars: []string{"PARITY_PROFILE_DEFAULT"},
	}
	// ComputeDeadlineMsFlag bounds one computation.
	ComputeDeadlineMsFlag = &cli.IntFlag{
		Name:    "compute-deadline-ms",
		Usage:   "Default per-request compute deadline in milliseconds",
		Value:   5000,
		EnvVars: []string{"COMPUTE_DEADLINE_MS"},
	}
	// ShutdownGraceSecondsFlag bounds drain on shutdown.
	ShutdownGraceSecondsFlag = &cli.IntFlag{
		Name:    "shutdown-grace-seconds",
		Usage:   "Seconds to drain in-flight work on shutdown",
		Value:   10,
		EnvVars: []string{"SHUTDOWN_GRACE_SECONDS"},
	}
	// CORSOriginsFlag lists allowed browser origins.
	CORSOriginsFlag = &cli.StringSliceFlag{
		Name:    "cors-origins",
		Usage:   "Allowed CORS origins; empty disables CORS handling",
		EnvVars: []string{"CORS_ORIGINS"},
	}
	// VerbosityFlag sets the log level.
	VerbosityFlag = &cli.StringFlag{
		Name:    "verbosity",
		Usage:   "Logging verbosity (trace, debug, info, warn, error, fatal)",
		Value:   "info",
		EnvVars: []string{"VERBOSITY"},
	}
)

// Flags is the full flag set of the server command.
var Flags = []cli.Flag{
	HTTPHostFlag,
	HTTPPortFlag,
	KernelBundleFlag,
	KernelsPathFlag,
	WorkersFlag,
	QueueHighWaterFlag,
	CacheL1SizeFlag,
	CacheTTLSecondsFlag,
	CacheL2URLFlag,
	CacheL2EnabledFlag,
	RateLimitEnabledFlag,
	RateLimitRuleFlag,
	TimeResolverPatchesFlag,
	AyanamshaRegistryFlag,
	ParityProfileDefaultFlag,
	ComputeDeadlineMsFlag,
	ShutdownGraceSecondsFlag,
	CORSOriginsFlag,
	VerbosityFlag,
}
