// Package node wires the involution server: configuration, kernel bundle,
// worker pool, caches, resolver, registry, orchestrator, and the HTTP
// surface, all managed through the runtime service registry.
package node

import (
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/involution-sh/involution/api"
	"github.com/involution-sh/involution/ayanamsha"
	"github.com/involution-sh/involution/cache"
	"github.com/involution-sh/involution/cmd/involution/flags"
	"github.com/involution-sh/involution/config/params"
	"github.com/involution-sh/involution/kernel"
	"github.com/involution-sh/involution/ratelimit"
	"github.com/involution-sh/involution/runtime"
	"github.com/involution-sh/involution/serving"
	"github.com/involution-sh/involution/timeres"
	"github.com/involution-sh/involution/worker"
)

var log = logrus.WithField("prefix", "node")

// Node is the running involution server process.
type Node struct {
	cfg      *params.Config
	services *runtime.ServiceRegistry
	pool     *worker.Pool
	cache    *cache.Layered

	stop chan struct{}
	lock sync.Mutex
}

// New builds a node from CLI context. Everything that can fail fatally at
// startup (kernel verification, config parse) fails here.
func New(cliCtx *cli.Context) (*Node, error) {
	cfg := configFromCLI(cliCtx)

	patches, err := loadPatches(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	kernels := kernel.NewManager(cfg.KernelsPath, cfg.KernelBundle)
	if err := kernels.Initialize(); err != nil {
		return nil, errors.Wrap(err, "kernel bundle initialization failed")
	}

	pool := worker.NewPool(worker.Config{
		Size:      cfg.Workers,
		BundleDir: kernels.Dir(),
		HighWater: cfg.QueueHighWater,
	})
	if err := pool.Start(); err != nil {
		return nil, errors.Wrap(err, "could not start compute workers")
	}

	l1 := cache.NewL1(cfg.CacheL1Size, cfg.CacheTTL)
	var l2 *cache.L2
	if cfg.CacheL2On && cfg.CacheL2URL != "" {
		l2 = cache.NewL2(cfg.CacheL2URL, "", 0, cfg.CacheTTL)
	}
	layered := cache.NewLayered(l1, l2)

	resolver := timeres.New(patches)
	profile, err := timeres.ParseProfile(cfg.DefaultParityProfile)
	if err != nil {
		return nil, errors.Wrap(err, "bad default parity profile")
	}

	svc := serving.NewService(serving.Config{
		DefaultDeadline: cfg.ComputeDeadline,
		DefaultProfile:  profile,
		QueueSoftLimit:  cfg.QueueSoftLimit,
	}, kernels, pool, layered, resolver, registry)

	limiter, err := buildLimiter(cfg)
	if err != nil {
		return nil, err
	}

	n := &Node{
		cfg:      cfg,
		services: runtime.NewServiceRegistry(),
		pool:     pool,
		cache:    layered,
		stop:     make(chan struct{}),
	}

	server := api.NewServer(api.Config{
		Host:            cfg.HTTPHost,
		Port:            cfg.HTTPPort,
		AllowedOrigins:  cfg.AllowedOrigins,
		RequestDeadline: cfg.ComputeDeadline,
		Limiter:         limiter,
		ServiceStatuses: n.services.Statuses,
	}, svc)
	if err := n.services.RegisterService(server); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"bundle":  cfg.KernelBundle,
		"workers": cfg.Workers,
		"address": cfg.HTTPHost + ":" + cfg.HTTPPort,
	}).Info("Node configured")
	return n, nil
}

// Start runs the node until SIGINT or SIGTERM.
func (n *Node) Start() {
	n.services.StartAll()

	var server *api.Server
	if err := n.services.FetchService(&server); err != nil {
		log.WithError(err).Error("HTTP service missing from registry")
	} else {
		log.WithField("address", server.Addr()).Info("Node started")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case sig := <-sigc:
		log.WithField("signal", sig.String()).Info("Shutting down")
	case <-n.stop:
	}
	n.Close()
}

// Close stops every service, drains the worker pool, and releases caches.
func (n *Node) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	select {
	case <-n.stop:
		return
	default:
	}

	n.services.StopAll()
	n.pool.Shutdown(n.cfg.ShutdownGrace)
	if err := n.cache.Close(); err != nil {
		log.WithError(err).Warn("Could not close cache cleanly")
	}
	close(n.stop)
	log.Info("Node stopped")
}

func configFromCLI(ctx *cli.Context) *params.Config {
	cfg := params.DefaultConfig()
	cfg.HTTPHost = ctx.String(flags.HTTPHostFlag.Name)
	cfg.HTTPPort = ctx.String(flags.HTTPPortFlag.Name)
	cfg.KernelBundle = ctx.String(flags.KernelBundleFlag.Name)
	cfg.KernelsPath = ctx.String(flags.KernelsPathFlag.Name)
	cfg.Workers = ctx.Int(flags.WorkersFlag.Name)
	cfg.QueueHighWater = ctx.Int(flags.QueueHighWaterFlag.Name)
	cfg.CacheL1Size = ctx.Int(flags.CacheL1SizeFlag.Name)
	cfg.CacheTTL = time.Duration(ctx.Int(flags.CacheTTLSecondsFlag.Name)) * time.Second
	cfg.CacheL2URL = ctx.String(flags.CacheL2URLFlag.Name)
	cfg.CacheL2On = ctx.Bool(flags.CacheL2EnabledFlag.Name)
	cfg.RateLimitOn = ctx.Bool(flags.RateLimitEnabledFlag.Name)
	cfg.RateLimitRule = ctx.String(flags.RateLimitRuleFlag.Name)
	cfg.PatchesPath = ctx.String(flags.TimeResolverPatchesFlag.Name)
	cfg.AyanamshaPath = ctx.String(flags.AyanamshaRegistryFlag.Name)
	cfg.DefaultParityProfile = ctx.String(flags.ParityProfileDefaultFlag.Name)
	cfg.ComputeDeadline = time.Duration(ctx.Int(flags.ComputeDeadlineMsFlag.Name)) * time.Millisecond
	cfg.ShutdownGrace = time.Duration(ctx.Int(flags.ShutdownGraceSecondsFlag.Name)) * time.Second
	cfg.AllowedOrigins = ctx.StringSlice(flags.CORSOriginsFlag.Name)
	return cfg
}

func loadPatches(cfg *params.Config) (*timeres.PatchSet, error) {
	if cfg.PatchesPath == "" {
		return timeres.DefaultPatches(), nil
	}
	ps, err := timeres.LoadPatches(cfg.PatchesPath)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"rules":   ps.Len(),
		"version": ps.Version(),
	}).Info("Loaded historical patch rules")
	return ps, nil
}

func loadRegistry(cfg *params.Config) (*ayanamsha.Registry, error) {
	if cfg.AyanamshaPath == "" {
		return ayanamsha.Default(), nil
	}
	reg, err := ayanamsha.Load(cfg.AyanamshaPath)
	if err != nil {
		return nil, err
	}
	log.WithField("systems", strings.Join(reg.IDs(), ", ")).Info("Loaded ayanamsha registry")
	return reg, nil
}

func buildLimiter(cfg *params.Config) (ratelimit.Limiter, error) {
	if !cfg.RateLimitOn {
		return nil, nil
	}
	limit, err := ratelimit.ParseLimit(cfg.RateLimitRule)
	if err != nil {
		return nil, err
	}
	if cfg.CacheL2On && cfg.CacheL2URL != "" {
		return ratelimit.NewRedis(limit, ratelimit.NewRedisClient(cfg.CacheL2URL)), nil
	}
	return ratelimit.NewLocal(limit), nil
}
