// Package serving orchestrates position requests: validation, time
// resolution, fingerprinting, cache lookup, single-flight deduplication,
// worker dispatch, post-processing, and provenance assembly.
package serving

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ayanamsha"
	"github.com/involution-sh/involution/cache"
	"github.com/involution-sh/involution/kernel"
	"github.com/involution-sh/involution/timeres"
	"github.com/involution-sh/involution/worker"
	"github.com/pkg/errors"
)

var log = logrus.WithField("prefix", "serving")

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	positionsCalculated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_positions_calculated_total",
		Help: "Positions responses served, by zodiac system, bundle and cache disposition.",
	}, []string{"system", "bundle_tag", "cache"})
	positionsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "involution_positions_duration_seconds",
		Help:    "End-to-end positions request latency.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"system"})
)

// Computer dispatches calculations. *worker.Pool is the production
// implementation; tests substitute fakes.
type Computer interface {
	Submit(ctx context.Context, args worker.Args) (<-chan worker.Outcome, error)
	Size() int
	QueueDepth() int
	FaultsWithin(window time.Duration) int
}

// Config tunes the orchestrator.
type Config struct {
	// DefaultDeadline bounds one computation end to end. Clients may shorten
	// it per request, never extend it.
	DefaultDeadline time.Duration
	// DefaultProfile applies when a request names no parity profile.
	DefaultProfile timeres.Profile
	// QueueSoftLimit is the sustained queue depth at which /healthz reports
	// degraded.
	QueueSoftLimit int
}

// Service is the request orchestrator. Safe for concurrent use; all mutable
// state lives in the cache, the flight group, and the resolution memo, each
// with its own synchronization.
type Service struct {
	cfg      Config
	kernels  *kernel.Manager
	pool     Computer
	cache    *cache.Layered
	resolver *timeres.Resolver
	registry *ayanamsha.Registry

	flight singleflight.Group
	// resolveMemo caches deterministic time resolutions keyed by their full
	// input tuple. Resolutions are pure, so a generous TTL is safe.
	resolveMemo *gocache.Cache
}

// Reply is a serialized positions response ready for the wire.
type Reply struct {
	Payload []byte
	ETag    string
	Tier    cache.Tier
}

// NewService wires the orchestrator.
func NewService(cfg Config, kernels *kernel.Manager, pool Computer, c *cache.Layered, resolver *timeres.Resolver, registry *ayanamsha.Registry) *Service {
	if cfg.DefaultDeadline <= 0 {
		cfg.DefaultDeadline = 5 * time.Second
	}
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = timeres.StrictHistory
	}
	if cfg.QueueSoftLimit <= 0 {
		cfg.QueueSoftLimit = 16
	}
	return &Service{
		cfg:         cfg,
		kernels:     kernels,
		pool:        pool,
		cache:       c,
		resolver:    resolver,
		registry:    registry,
		resolveMemo: gocache.New(10*time.Minute, time.Minute),
	}
}

// Positions runs the full request lifecycle. The context's deadline bounds
// how long the caller waits; an in-flight computation outliving it still
// completes and lands in the cache.
func (s *Service) Positions(ctx context.Context, in *PositionsRequest) (*Reply, *Error) {
	start := time.Now()

	req, verr := validate(in, s.registry, s.cfg.DefaultProfile)
	if verr != nil {
		return nil, verr
	}

	var timeRes *timeres.Result
	utc := req.utc
	if req.local != nil {
		timeRes, verr = s.resolveLocal(*req.local)
		if verr != nil {
			return nil, verr
		}
		utc = timeRes.UTC
	}

	ayanID := ""
	if req.ayan != nil {
		ayanID = req.ayan.ID
	}
	fp := fingerprint(utc, req.system, ayanID, req.frame, req.epoch, req.bodies)

	if e, tier, ok := s.cache.Get(ctx, fp); ok {
		s.finish(req.system, tier, start)
		return &Reply{Payload: e.Payload, ETag: e.ETag, Tier: tier}, nil
	}

	deadline, ok := ctx.Deadline()
	if !ok || deadline.After(start.Add(s.cfg.DefaultDeadline)) {
		deadline = start.Add(s.cfg.DefaultDeadline)
	}

	// Single-flight: at most one concurrent compute per fingerprint. The
	// flight function re-probes the cache so that a miss observed before
	// joining an existing flight cannot race a concurrent insert.
	ch := s.flight.DoChan(fp, func() (interface{}, error) {
		if e, _, ok := s.cache.Get(context.Background(), fp); ok {
			return e, nil
		}
		return s.compute(req, utc, timeRes, fp, deadline)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, AsError(r.Err)
		}
		e := r.Val.(cache.Entry)
		s.finish(req.system, cache.TierNone, start)
		return &Reply{Payload: e.Payload, ETag: e.ETag, Tier: cache.TierNone}, nil
	case <-ctx.Done():
		// The flight keeps running; its result still lands in the cache.
		return nil, errTimeout.withDetail("deadline expired awaiting computation")
	}
}

func (s *Service) finish(system astro.ZodiacSystem, tier cache.Tier, start time.Time) {
	positionsCalculated.WithLabelValues(string(system), s.kernels.BundleName(), string(tier)).Inc()
	positionsDuration.WithLabelValues(string(system)).Observe(time.Since(start).Seconds())
}

// compute runs inside the single flight: coverage check, dispatch,
// post-processing, serialization, cache insert.
func (s *Service) compute(req *request, utc time.Time, timeRes *timeres.Result, fp string, deadline time.Time) (cache.Entry, error) {
	jd := astro.JulianDay(utc)

	for _, b := range req.bodies {
		cov, ok := s.kernels.Coverage(b)
		if !ok {
			return cache.Entry{}, errBodiesUnsupported.
				withDetail(fmt.Sprintf("body %s not covered by bundle %s", b, s.kernels.BundleName()))
		}
		if jd < cov.StartJD || jd > cov.EndJD {
			return cache.Entry{}, errRangeOutside.withDetail(fmt.Sprintf(
				"instant %s outside coverage of bundle %s for %s",
				utc.Format(time.RFC3339), s.kernels.BundleName(), b))
		}
	}

	// The dispatch context carries the first caller's deadline so queued
	// entries can be canceled, but is detached from the caller: a compute
	// that outlives every waiter still finalizes into the cache.
	dctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	outCh, err := s.pool.Submit(dctx, worker.Args{JD: jd, Bodies: req.bodies})
	if err != nil {
		return cache.Entry{}, mapComputeError(err)
	}
	out := <-outCh
	if out.Err != nil {
		return cache.Entry{}, mapComputeError(out.Err)
	}

	resp := s.assemble(req, utc, jd, timeRes, out.Result, fp)
	payload, err := codec.Marshal(resp)
	if err != nil {
		return cache.Entry{}, errors.Wrap(err, "could not serialize response")
	}

	e := cache.Entry{Payload: payload, ETag: fp, StoredAt: time.Now().UTC()}
	s.cache.Put(context.Background(), fp, e)
	return e, nil
}

// assemble builds the response object from raw primitive output.
func (s *Service) assemble(req *request, utc time.Time, jd float64, timeRes *timeres.Result, res *worker.Result, fp string) *PositionsResponse {
	t := astro.JulianCenturies(jd)

	var ayanProv *AyanamshaProvenance
	offset := 0.0
	if req.ayan != nil {
		offset = req.ayan.OffsetDeg(jd)
		ayanProv = &AyanamshaProvenance{ID: req.ayan.ID, ValueDeg: offset}
	}

	bodies := make([]BodyPosition, 0, len(req.bodies))
	for _, b := range req.bodies {
		st := res.States[b]
		lon, lat, dist := st.LonDeg, st.LatDeg, st.DistAU

		// Topocentric shift matters only for the Moon; everything else is
		// below reported precision.
		if b == astro.Moon && req.place != nil && req.elevation != nil {
			lon, lat = topocentricEcliptic(lon, lat, dist, jd, req.place.Lat, req.place.Lon, *req.elevation)
		}

		pos := BodyPosition{
			Body:         string(b),
			LatitudeDeg:  lat,
			IsRetrograde: st.LonSpeed < 0,
		}
		d := dist
		pos.DistanceAU = &d
		speed := st.LonSpeed
		pos.SpeedDegPerDay = &speed

		if req.frame == astro.Equatorial {
			ra, dec := astro.EquatorialJ2000(lon, lat, t)
			pos.RAHours = &ra
			pos.DecDeg = &dec
		}

		displayLon := lon
		if req.system == astro.Sidereal {
			displayLon = ayanamsha.Apply(lon, offset)
		}
		pos.LongitudeDeg = displayLon
		pos.Sign = astro.Sign(displayLon)
		pos.DegreeInSign = astro.DegreeInSign(displayLon)
		pos.Degrees, pos.Minutes, pos.Seconds = astro.DMS(pos.DegreeInSign)

		bodies = append(bodies, pos)
	}

	return &PositionsResponse{
		UTC:    utc.Format("2006-01-02T15:04:05Z"),
		Bodies: bodies,
		Provenance: Provenance{
			KernelBundleTag: s.kernels.BundleName(),
			EphemerisTag:    s.kernels.Policy(jd),
			Frame:           string(req.frame),
			Epoch:           string(req.epoch),
			Ayanamsha:       ayanProv,
			TimeResolver:    timeRes,
			RuleSetVersion:  s.resolver.RuleSetVersion(),
		},
		ETag: fp,
	}
}

// ResolveTime runs the time resolver in isolation for POST /v1/time/resolve.
func (s *Service) ResolveTime(in *ResolveRequest) (*timeres.Result, *Error) {
	if strings.TrimSpace(in.LocalDatetime) == "" {
		return nil, errInputMissing.withDetail("local_datetime is required")
	}
	if in.Place == nil {
		return nil, errInputMissing.withDetail("place with lat and lon is required")
	}
	if perr := validatePlace(in.Place); perr != nil {
		return nil, perr
	}
	profile, err := timeres.ParseProfile(in.ParityProfile)
	if err != nil {
		return nil, errInputInvalid.withDetail(err.Error())
	}
	if profile == "" {
		profile = s.cfg.DefaultProfile
	}
	return s.resolveLocal(timeres.Input{
		LocalDatetime: in.LocalDatetime,
		Lat:           in.Place.Lat,
		Lon:           in.Place.Lon,
		Profile:       profile,
		UserZone:      in.UserZone,
		UserOffsetSec: in.UserOffsetSec,
		UserAssumeDST: in.UserAssumeDST,
	})
}

// resolveLocal memoizes resolver calls. Resolution is deterministic for a
// given input and rule-set version, so memoized results are exact.
func (s *Service) resolveLocal(in timeres.Input) (*timeres.Result, *Error) {
	key := memoKey(in)
	if v, ok := s.resolveMemo.Get(key); ok {
		return v.(*timeres.Result), nil
	}
	res, err := s.resolver.Resolve(in)
	if err != nil {
		return nil, mapResolveError(err)
	}
	s.resolveMemo.SetDefault(key, res)
	return res, nil
}

func memoKey(in timeres.Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%.6f|%.6f|%s|%s", in.LocalDatetime, in.Lat, in.Lon, in.Profile, in.UserZone)
	if in.UserOffsetSec != nil {
		fmt.Fprintf(&b, "|o%d", *in.UserOffsetSec)
	}
	if in.UserAssumeDST != nil {
		fmt.Fprintf(&b, "|d%t", *in.UserAssumeDST)
	}
	return b.String()
}

func mapResolveError(err error) *Error {
	switch {
	case errors.Is(err, timeres.ErrAmbiguousTime):
		return errTimeAmbiguous.
			withDetail(err.Error()).
			withTip("Supply user_assume_dst to pick a side of the fold.").
			withCause(err)
	case errors.Is(err, timeres.ErrNonexistentTime):
		return errTimeNonexistent.
			withDetail(err.Error()).
			withTip("The clock skipped this time; supply user_assume_dst or adjust the datetime.").
			withCause(err)
	case errors.Is(err, timeres.ErrUnknownZone),
		errors.Is(err, timeres.ErrBadDatetime),
		errors.Is(err, timeres.ErrTimezoneSuffix),
		errors.Is(err, timeres.ErrYearRange):
		return errInputInvalid.withDetail(err.Error()).withCause(err)
	default:
		return AsError(err)
	}
}

// Ayanamshas lists the registry with each system's value at now.
func (s *Service) Ayanamshas() []AyanamshaInfo {
	jd := astro.JulianDay(time.Now().UTC())
	recs := s.registry.List()
	out := make([]AyanamshaInfo, 0, len(recs))
	for _, r := range recs {
		out = append(out, AyanamshaInfo{
			ID:              r.ID,
			Kind:            string(r.Kind),
			CurrentValueDeg: r.OffsetDeg(jd),
		})
	}
	return out
}

// HealthSnapshot reports service health for GET /healthz.
func (s *Service) HealthSnapshot() *Health {
	h := &Health{
		Status:          "healthy",
		KernelBundleTag: s.kernels.BundleName(),
		KernelChecksums: s.kernels.ChecksumReport(),
		WorkerPoolSize:  s.pool.Size(),
		QueueDepth:      s.pool.QueueDepth(),
		CacheEntries:    s.cache.L1Len(),
		CacheHitRate:    s.cache.L1HitRate(),
		L2Configured:    s.cache.HasL2(),
		RuleSetVersion:  s.resolver.RuleSetVersion(),
	}
	if s.cache.HasL2() {
		reachable := s.cache.L2Healthy()
		h.L2Reachable = &reachable
	}

	switch {
	case s.pool.FaultsWithin(time.Minute) >= 3:
		h.Status = "degraded"
	case h.QueueDepth > s.cfg.QueueSoftLimit:
		h.Status = "degraded"
	case h.L2Reachable != nil && !*h.L2Reachable:
		// L2 loss does not impair serving; reported as degraded so operators
		// notice before cache pressure builds.
		h.Status = "degraded"
	}
	return h
}
