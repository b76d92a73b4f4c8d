package serving

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ayanamsha"
	"github.com/involution-sh/involution/cache"
	"github.com/involution-sh/involution/ephemeris"
	"github.com/involution-sh/involution/kernel"
	"github.com/involution-sh/involution/testing/util"
	"github.com/involution-sh/involution/timeres"
	"github.com/involution-sh/involution/worker"
)

// newTestKernels generates a bundle covering 2000-01-01 plus ~320 days for
// sun, moon and mars, and returns an initialized manager and the bundle dir.
func newTestKernels(t *testing.T) (*kernel.Manager, string) {
	t.Helper()
	kernelsPath := t.TempDir()
	bundleDir := filepath.Join(kernelsPath, "test-bundle")
	require.NoError(t, os.MkdirAll(bundleDir, 0o755))
	require.NoError(t, util.GenerateBundle(bundleDir, util.BundleOpts{
		StartJD:  2451545.0,
		EndJD:    2451545.0 + 320,
		StepDays: 16,
		NCoeff:   14,
		Bodies:   []astro.Body{astro.Sun, astro.Moon, astro.Mars},
	}))
	m := kernel.NewManager(kernelsPath, "test-bundle")
	require.NoError(t, m.Initialize())
	return m, bundleDir
}

func newTestService(t *testing.T, kernels *kernel.Manager, pool Computer, cfg Config) *Service {
	t.Helper()
	c := cache.NewLayered(cache.NewL1(64, time.Minute), nil)
	return NewService(cfg, kernels, pool, c, timeres.New(nil), ayanamsha.Default())
}

// fakeComputer satisfies Computer with canned outcomes, counting submissions.
type fakeComputer struct {
	mu      sync.Mutex
	submits int
	delay   time.Duration
	outcome worker.Outcome
	queue   int
	faults  int
}

func cannedOutcome(bodies ...astro.Body) worker.Outcome {
	states := make(map[astro.Body]ephemeris.State, len(bodies))
	for i, b := range bodies {
		states[b] = ephemeris.State{
			LonDeg:   123.456 + 40*float64(i),
			LatDeg:   1.25,
			DistAU:   1.0,
			LonSpeed: -0.5,
		}
	}
	return worker.Outcome{Result: &worker.Result{States: states}}
}

func (f *fakeComputer) Submit(_ context.Context, _ worker.Args) (<-chan worker.Outcome, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	ch := make(chan worker.Outcome, 1)
	go func() {
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		ch <- f.outcome
	}()
	return ch, nil
}

func (f *fakeComputer) Size() int       { return 1 }
func (f *fakeComputer) QueueDepth() int { return f.queue }
func (f *fakeComputer) FaultsWithin(time.Duration) int {
	return f.faults
}

func (f *fakeComputer) submitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

func decodeResponse(t *testing.T, payload []byte) *PositionsResponse {
	t.Helper()
	var resp PositionsResponse
	require.NoError(t, json.Unmarshal(payload, &resp))
	return &resp
}

func TestPositionsEndToEnd(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	reply, verr := s.Positions(context.Background(), validRequest())
	require.Nil(t, verr)
	assert.Equal(t, cache.TierNone, reply.Tier)
	assert.Len(t, reply.ETag, 16)

	resp := decodeResponse(t, reply.Payload)
	assert.Equal(t, "2000-02-15T00:00:00Z", resp.UTC)
	assert.Equal(t, reply.ETag, resp.ETag)
	require.Len(t, resp.Bodies, 2)
	assert.Equal(t, "Sun", resp.Bodies[0].Body)
	assert.Equal(t, "Moon", resp.Bodies[1].Body)
	for _, b := range resp.Bodies {
		assert.GreaterOrEqual(t, b.LongitudeDeg, 0.0)
		assert.Less(t, b.LongitudeDeg, 360.0)
		assert.NotEmpty(t, b.Sign)
		assert.Nil(t, b.RAHours, "no equatorial fields under the ecliptic frame")
	}
	assert.Equal(t, "test-bundle", resp.Provenance.KernelBundleTag)
	assert.Equal(t, "ecliptic_of_date", resp.Provenance.Frame)
	assert.Nil(t, resp.Provenance.Ayanamsha)
	assert.Nil(t, resp.Provenance.TimeResolver, "utc input involves no time resolution")

	// Same request again: byte-identical payload straight from L1.
	again, verr := s.Positions(context.Background(), validRequest())
	require.Nil(t, verr)
	assert.Equal(t, cache.TierL1, again.Tier)
	assert.Equal(t, reply.ETag, again.ETag)
	assert.Equal(t, reply.Payload, again.Payload)
}

func TestPositionsSiderealShiftsLongitudes(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	trop, verr := s.Positions(context.Background(), validRequest())
	require.Nil(t, verr)

	in := validRequest()
	in.System = "sidereal"
	in.Ayanamsha = &AyanamshaRef{ID: "lahiri"}
	sid, verr := s.Positions(context.Background(), in)
	require.Nil(t, verr)
	assert.NotEqual(t, trop.ETag, sid.ETag)

	tResp := decodeResponse(t, trop.Payload)
	sResp := decodeResponse(t, sid.Payload)
	require.NotNil(t, sResp.Provenance.Ayanamsha)
	assert.Equal(t, "lahiri", sResp.Provenance.Ayanamsha.ID)
	offset := sResp.Provenance.Ayanamsha.ValueDeg
	assert.InDelta(t, 23.85, offset, 0.2)

	for i := range tResp.Bodies {
		want := astro.Norm360(tResp.Bodies[i].LongitudeDeg - offset)
		assert.InDelta(t, want, sResp.Bodies[i].LongitudeDeg, 1e-9, tResp.Bodies[i].Body)
	}
}

func TestPositionsEquatorialFrame(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	in := validRequest()
	in.Frame = &FrameRef{Type: "equatorial"}
	reply, verr := s.Positions(context.Background(), in)
	require.Nil(t, verr)

	resp := decodeResponse(t, reply.Payload)
	assert.Equal(t, "equatorial", resp.Provenance.Frame)
	assert.Equal(t, "J2000", resp.Provenance.Epoch)
	for _, b := range resp.Bodies {
		require.NotNil(t, b.RAHours, b.Body)
		require.NotNil(t, b.DecDeg, b.Body)
		assert.GreaterOrEqual(t, *b.RAHours, 0.0)
		assert.Less(t, *b.RAHours, 24.0)
		assert.GreaterOrEqual(t, *b.DecDeg, -90.0)
		assert.LessOrEqual(t, *b.DecDeg, 90.0)
	}
}

func TestPositionsLocalDatetimeCarriesResolution(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	in := validRequest()
	in.When = When{
		LocalDatetime: "2000-02-14T19:00:00",
		Place:         &Place{Lat: 40.7128, Lon: -74.0060},
	}
	reply, verr := s.Positions(context.Background(), in)
	require.Nil(t, verr)

	resp := decodeResponse(t, reply.Payload)
	// 19:00 EST == midnight UTC the next day.
	assert.Equal(t, "2000-02-15T00:00:00Z", resp.UTC)
	require.NotNil(t, resp.Provenance.TimeResolver)
	assert.Equal(t, "America/New_York", resp.Provenance.TimeResolver.ZoneID)
	assert.NotEmpty(t, resp.Provenance.RuleSetVersion)

	// A utc request for the same instant shares the fingerprint, so the
	// cached entry (including resolver provenance) is returned as-is.
	direct, verr := s.Positions(context.Background(), validRequest())
	require.Nil(t, verr)
	assert.Equal(t, reply.ETag, direct.ETag)
	assert.Equal(t, cache.TierL1, direct.Tier)
}

func TestPositionsOutsideCoverage(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	in := validRequest()
	in.When = When{UTC: "2010-01-01T00:00:00Z"}
	_, verr := s.Positions(context.Background(), in)
	require.NotNil(t, verr)
	assert.Equal(t, "RANGE.EPHEMERIS_OUTSIDE", verr.Code)
	assert.Equal(t, 400, verr.Status)
	assert.Contains(t, verr.Detail, "test-bundle")
}

func TestPositionsBodyNotInBundle(t *testing.T) {
	kernels, bundleDir := newTestKernels(t)
	pool := worker.NewPool(worker.Config{Size: 1, BundleDir: bundleDir})
	require.NoError(t, pool.Start())
	t.Cleanup(func() { pool.Shutdown(time.Second) })
	s := newTestService(t, kernels, pool, Config{})

	in := validRequest()
	in.Bodies = []string{"pluto"}
	_, verr := s.Positions(context.Background(), in)
	require.NotNil(t, verr)
	assert.Equal(t, "BODIES.UNSUPPORTED", verr.Code)
}

func TestPositionsSingleFlight(t *testing.T) {
	kernels, _ := newTestKernels(t)
	fake := &fakeComputer{delay: 50 * time.Millisecond, outcome: cannedOutcome(astro.Sun, astro.Moon)}
	s := newTestService(t, kernels, fake, Config{})

	const callers = 8
	var wg sync.WaitGroup
	etags := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply, verr := s.Positions(context.Background(), validRequest())
			if assert.Nil(t, verr) {
				etags[i] = reply.ETag
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, fake.submitted(), "concurrent identical requests share one computation")
	for i := 1; i < callers; i++ {
		assert.Equal(t, etags[0], etags[i])
	}
}

func TestPositionsTimeoutStillCaches(t *testing.T) {
	kernels, _ := newTestKernels(t)
	fake := &fakeComputer{delay: 150 * time.Millisecond, outcome: cannedOutcome(astro.Sun, astro.Moon)}
	s := newTestService(t, kernels, fake, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, verr := s.Positions(ctx, validRequest())
	require.NotNil(t, verr)
	assert.Equal(t, "SERVICE.TIMEOUT", verr.Code)
	assert.Equal(t, 503, verr.Status)

	// The abandoned flight completes and lands in the cache.
	require.Eventually(t, func() bool {
		reply, verr := s.Positions(context.Background(), validRequest())
		return verr == nil && reply.Tier == cache.TierL1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, fake.submitted())
}

func TestPositionsRetrogradeFlag(t *testing.T) {
	kernels, _ := newTestKernels(t)
	fake := &fakeComputer{outcome: cannedOutcome(astro.Sun, astro.Moon)}
	s := newTestService(t, kernels, fake, Config{})

	reply, verr := s.Positions(context.Background(), validRequest())
	require.Nil(t, verr)
	resp := decodeResponse(t, reply.Payload)
	for _, b := range resp.Bodies {
		assert.True(t, b.IsRetrograde, "canned speed is negative")
		require.NotNil(t, b.SpeedDegPerDay)
		assert.Equal(t, -0.5, *b.SpeedDegPerDay)
	}
}

func TestResolveTimeValidation(t *testing.T) {
	kernels, _ := newTestKernels(t)
	s := newTestService(t, kernels, &fakeComputer{}, Config{})

	_, verr := s.ResolveTime(&ResolveRequest{Place: &Place{Lat: 1, Lon: 1}})
	require.NotNil(t, verr)
	assert.Equal(t, "INPUT.MISSING_REQUIRED", verr.Code)

	_, verr = s.ResolveTime(&ResolveRequest{LocalDatetime: "2000-01-01T00:00:00"})
	require.NotNil(t, verr)
	assert.Equal(t, "INPUT.MISSING_REQUIRED", verr.Code)

	_, verr = s.ResolveTime(&ResolveRequest{
		LocalDatetime: "2000-01-01T00:00:00",
		Place:         &Place{Lat: 95, Lon: 0},
	})
	require.NotNil(t, verr)
	assert.Equal(t, "INPUT.INVALID", verr.Code)

	_, verr = s.ResolveTime(&ResolveRequest{
		LocalDatetime: "2000-01-01T00:00:00",
		Place:         &Place{Lat: 1, Lon: 1},
		ParityProfile: "swisseph",
	})
	require.NotNil(t, verr)
	assert.Equal(t, "INPUT.INVALID", verr.Code)
}

func TestResolveTimeAndMemo(t *testing.T) {
	kernels, _ := newTestKernels(t)
	s := newTestService(t, kernels, &fakeComputer{}, Config{})

	in := &ResolveRequest{
		LocalDatetime: "1962-07-02T23:33:00",
		Place:         &Place{Lat: 37.840347, Lon: -85.949127},
	}
	res, verr := s.ResolveTime(in)
	require.Nil(t, verr)
	assert.Equal(t, "1962-07-03T04:33:00Z", res.UTCString)
	assert.Equal(t, "America/Kentucky/Louisville", res.ZoneID)

	// The memo returns the identical result object for identical input.
	again, verr := s.ResolveTime(in)
	require.Nil(t, verr)
	assert.Same(t, res, again)
}

func TestResolveTimeAmbiguousMapsToTaxonomy(t *testing.T) {
	kernels, _ := newTestKernels(t)
	s := newTestService(t, kernels, &fakeComputer{}, Config{})

	_, verr := s.ResolveTime(&ResolveRequest{
		LocalDatetime: "2023-11-05T01:30:00",
		Place:         &Place{Lat: 40.7128, Lon: -74.0060},
		ParityProfile: "as_entered",
		UserZone:      "America/New_York",
	})
	require.NotNil(t, verr)
	assert.Equal(t, "TIME.AMBIGUOUS", verr.Code)
	assert.Equal(t, 400, verr.Status)
	assert.Contains(t, verr.Tip, "user_assume_dst")
}

func TestAyanamshasListing(t *testing.T) {
	kernels, _ := newTestKernels(t)
	s := newTestService(t, kernels, &fakeComputer{}, Config{})

	infos := s.Ayanamshas()
	require.Len(t, infos, 6)
	assert.Equal(t, "lahiri", infos[0].ID)
	assert.Equal(t, "formula", infos[0].Kind)
	// Current Lahiri value: ~23.85 at J2000 plus a quarter century of drift.
	assert.InDelta(t, 24.2, infos[0].CurrentValueDeg, 0.3)
}

func TestHealthSnapshot(t *testing.T) {
	kernels, _ := newTestKernels(t)
	fake := &fakeComputer{}
	s := newTestService(t, kernels, fake, Config{QueueSoftLimit: 4})

	h := s.HealthSnapshot()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "test-bundle", h.KernelBundleTag)
	assert.Len(t, h.KernelChecksums, 3)
	assert.False(t, h.L2Configured)
	assert.Nil(t, h.L2Reachable)

	fake.queue = 10
	assert.Equal(t, "degraded", s.HealthSnapshot().Status)

	fake.queue = 0
	fake.faults = 3
	assert.Equal(t, "degraded", s.HealthSnapshot().Status)
}
