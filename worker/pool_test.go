package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ephemeris"
	"github.com/involution-sh/involution/testing/util"
)

func testBundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, util.GenerateBundle(dir, util.BundleOpts{
		StartJD:  2451545.0,
		EndJD:    2451545.0 + 320,
		StepDays: 16,
		NCoeff:   14,
		Bodies:   []astro.Body{astro.Sun, astro.Moon},
	}))
	return dir
}

func startPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	if cfg.BundleDir == "" {
		cfg.BundleDir = testBundleDir(t)
	}
	p := NewPool(cfg)
	require.NoError(t, p.Start())
	t.Cleanup(func() { p.Shutdown(time.Second) })
	return p
}

func TestPoolComputesPositions(t *testing.T) {
	p := startPool(t, Config{Size: 2})

	ch, err := p.Submit(context.Background(), Args{
		JD:     2451600.0,
		Bodies: []astro.Body{astro.Sun, astro.Moon},
	})
	require.NoError(t, err)

	out := <-ch
	require.NoError(t, out.Err)
	require.Len(t, out.Result.States, 2)
	sun := out.Result.States[astro.Sun]
	assert.GreaterOrEqual(t, sun.LonDeg, 0.0)
	assert.Less(t, sun.LonDeg, 360.0)
	assert.NotZero(t, sun.LonSpeed)
}

func TestPoolOutsideRange(t *testing.T) {
	p := startPool(t, Config{Size: 1})

	ch, err := p.Submit(context.Background(), Args{
		JD:     2400000.0,
		Bodies: []astro.Body{astro.Sun},
	})
	require.NoError(t, err)

	out := <-ch
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, ephemeris.ErrOutsideRange))
}

func TestPoolOverloadFailsFast(t *testing.T) {
	block := make(chan struct{})
	var once sync.Once
	defer once.Do(func() { close(block) })

	p := NewPool(Config{Size: 1, HighWater: 2, BundleDir: testBundleDir(t)})
	p.calc = func(eng *ephemeris.Engine, args Args) (*Result, error) {
		<-block
		return &Result{States: map[astro.Body]ephemeris.State{}}, nil
	}
	require.NoError(t, p.Start())
	t.Cleanup(func() { p.Shutdown(time.Second) })

	// One task occupies the worker, two fill the queue.
	for i := 0; i < 3; i++ {
		_, err := p.Submit(context.Background(), Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
		require.NoError(t, err, "submit %d", i)
		if i == 0 {
			// Give the worker time to dequeue the running task.
			time.Sleep(50 * time.Millisecond)
		}
	}

	start := time.Now()
	_, err := p.Submit(context.Background(), Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverloaded))
	assert.Less(t, time.Since(start), 50*time.Millisecond, "overload rejection must be fast")

	once.Do(func() { close(block) })
}

func TestPoolWorkerFaultRestartsEngine(t *testing.T) {
	p := NewPool(Config{Size: 1, BundleDir: testBundleDir(t)})
	fired := false
	orig := p.calc
	// Single worker, so the flag needs no synchronization.
	p.calc = func(eng *ephemeris.Engine, args Args) (*Result, error) {
		if !fired {
			fired = true
			panic("induced fault")
		}
		return orig(eng, args)
	}
	require.NoError(t, p.Start())
	t.Cleanup(func() { p.Shutdown(time.Second) })

	ch, err := p.Submit(context.Background(), Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
	require.NoError(t, err)
	out := <-ch
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, ErrWorkerFault))
	assert.GreaterOrEqual(t, p.FaultsWithin(time.Minute), 1)

	// The worker reinitialized its kernels; the next task succeeds.
	ch, err = p.Submit(context.Background(), Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
	require.NoError(t, err)
	out = <-ch
	require.NoError(t, out.Err)
	require.Contains(t, out.Result.States, astro.Sun)
}

func TestPoolDropsExpiredQueuedTask(t *testing.T) {
	p := startPool(t, Config{Size: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := p.Submit(ctx, Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
	require.NoError(t, err)
	out := <-ch
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, ErrCanceled))
}

func TestPoolShutdownRejectsNewWork(t *testing.T) {
	p := startPool(t, Config{Size: 1})
	p.Shutdown(time.Second)

	_, err := p.Submit(context.Background(), Args{JD: 2451600.0, Bodies: []astro.Body{astro.Sun}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShuttingDown))
}
