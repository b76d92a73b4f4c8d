// Package worker serializes CPU-bound ephemeris calls behind a bounded pool.
// The compute primitive keeps per-engine mutable state and is documented as
// single-threaded; each worker therefore owns a private ephemeris.Engine and
// pins itself to an OS thread with runtime.LockOSThread, so no two threads
// ever touch the same engine.
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/involution-sh/involution/astro"
	"github.com/involution-sh/involution/ephemeris"
)

var log = logrus.WithField("prefix", "worker")

var (
	workerTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "involution_worker_tasks_total",
		Help: "Completed worker tasks partitioned by status.",
	}, []string{"status"})
	poolSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_worker_pool_size",
		Help: "Number of running compute workers.",
	})
	queueSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "involution_worker_pool_queue_size",
		Help: "Number of tasks waiting in the compute queue.",
	})
)

// ErrOverloaded is returned by Submit when the queue is at its high-water
// mark. Callers translate this into a fast 503.
var ErrOverloaded = errors.New("compute queue at high-water mark")

// ErrWorkerFault is returned when the worker servicing a task faulted. The
// worker restarts itself with fresh kernels.
var ErrWorkerFault = errors.New("compute worker fault")

// ErrShuttingDown is returned by Submit after Shutdown began.
var ErrShuttingDown = errors.New("worker pool is shutting down")

// ErrCanceled is returned for tasks whose deadline expired while still queued.
var ErrCanceled = errors.New("task canceled before execution")

// Args is one position calculation request.
type Args struct {
	JD     float64
	Bodies []astro.Body
}

// Result holds the raw primitive output per requested body.
type Result struct {
	States map[astro.Body]ephemeris.State
}

// Outcome resolves a submitted task with either a result or a typed error.
type Outcome struct {
	Result *Result
	Err    error
}

type task struct {
	ctx  context.Context
	args Args
	done chan Outcome // buffered; the worker never blocks sending
}

// Config sizes the pool.
type Config struct {
	Size       int
	BundleDir  string
	HighWater  int           // queue depth at which Submit fails fast
	Quarantine time.Duration // idle period after an uninterruptible overrun
}

// Pool is a fixed set of compute workers fed from a single FIFO queue.
type Pool struct {
	cfg   Config
	queue chan *task
	quit  chan struct{}
	wg    sync.WaitGroup

	accepting atomic.Bool
	depth     atomic.Int64

	faultMu sync.Mutex
	faults  []time.Time

	// calc is the per-task compute function. Tests may replace it.
	calc func(eng *ephemeris.Engine, args Args) (*Result, error)
}

// NewPool creates a stopped pool.
func NewPool(cfg Config) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 2
	}
	if cfg.HighWater <= 0 {
		cfg.HighWater = 64
	}
	if cfg.Quarantine <= 0 {
		cfg.Quarantine = time.Second
	}
	return &Pool{
		cfg:   cfg,
		queue: make(chan *task, cfg.HighWater),
		quit:  make(chan struct{}),
		calc:  computeAll,
	}
}

// Start spawns the workers. Each opens its own kernel engine and signals
// readiness; Start returns once all workers are ready, or with the first
// fatal initialization error.
func (p *Pool) Start() error {
	ready := make(chan error, p.cfg.Size)
	for i := 0; i < p.cfg.Size; i++ {
		p.wg.Add(1)
		go p.run(i, ready)
	}
	for i := 0; i < p.cfg.Size; i++ {
		if err := <-ready; err != nil {
			close(p.quit)
			return errors.Wrap(err, "worker initialization failed")
		}
	}
	p.accepting.Store(true)
	poolSizeGauge.Set(float64(p.cfg.Size))
	log.WithField("workers", p.cfg.Size).Info("Compute worker pool ready")
	return nil
}

// Submit enqueues a calculation. The returned channel resolves exactly once.
// Fails fast with ErrOverloaded at the high-water mark rather than buffering
// without bound.
func (p *Pool) Submit(ctx context.Context, args Args) (<-chan Outcome, error) {
	if !p.accepting.Load() {
		return nil, ErrShuttingDown
	}
	t := &task{ctx: ctx, args: args, done: make(chan Outcome, 1)}
	select {
	case p.queue <- t:
		queueSizeGauge.Set(float64(p.depth.Add(1)))
		return t.done, nil
	default:
		workerTasks.WithLabelValues("rejected").Inc()
		return nil, ErrOverloaded
	}
}

// QueueDepth is the number of queued, not yet running tasks.
func (p *Pool) QueueDepth() int {
	return int(p.depth.Load())
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return p.cfg.Size
}

// FaultsWithin counts worker faults in the trailing window. The health check
// reports degraded when this reaches 3 within a minute.
func (p *Pool) FaultsWithin(window time.Duration) int {
	p.faultMu.Lock()
	defer p.faultMu.Unlock()
	cutoff := time.Now().Add(-window)
	n := 0
	for _, ts := range p.faults {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

func (p *Pool) recordFault() {
	p.faultMu.Lock()
	defer p.faultMu.Unlock()
	cutoff := time.Now().Add(-2 * time.Minute)
	kept := p.faults[:0]
	for _, ts := range p.faults {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	p.faults = append(kept, time.Now())
}

// Shutdown stops accepting work, drains the queue for up to grace, then
// forcibly fails whatever remains.
func (p *Pool) Shutdown(grace time.Duration) {
	if !p.accepting.CompareAndSwap(true, false) {
		return
	}
	deadline := time.Now().Add(grace)
	for p.depth.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	close(p.quit)

	// Fail anything the grace period did not drain.
	for {
		select {
		case t := <-p.queue:
			p.depth.Add(-1)
			t.done <- Outcome{Err: ErrShuttingDown}
		default:
			p.wg.Wait()
			poolSizeGauge.Set(0)
			log.Info("Compute worker pool stopped")
			return
		}
	}
}

func (p *Pool) run(id int, ready chan<- error) {
	defer p.wg.Done()

	// The engine mutates internal record caches on every read. Pinning the
	// goroutine guarantees a single OS thread ever touches it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	eng, err := ephemeris.Open(p.cfg.BundleDir)
	ready <- err
	if err != nil {
		return
	}
	defer eng.Close()

	wlog := log.WithField("worker", id)
	for {
		select {
		case <-p.quit:
			return
		case t := <-p.queue:
			queueSizeGauge.Set(float64(p.depth.Add(-1)))
			p.serve(wlog, &eng, t)
		}
	}
}

func (p *Pool) serve(wlog *logrus.Entry, eng **ephemeris.Engine, t *task) {
	// A task whose caller already gave up is dropped without touching the
	// primitive; cancellation of queued entries is best-effort but cheap.
	if t.ctx.Err() != nil {
		workerTasks.WithLabelValues("canceled").Inc()
		t.done <- Outcome{Err: ErrCanceled}
		return
	}

	deadline, hasDeadline := t.ctx.Deadline()

	res, err := p.safeCalc(wlog, eng, t.args)
	switch {
	case err == nil:
		workerTasks.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrWorkerFault):
		workerTasks.WithLabelValues("fault").Inc()
	default:
		workerTasks.WithLabelValues("error").Inc()
	}
	t.done <- Outcome{Result: res, Err: err}

	// The primitive is uninterruptible: if the call outlived the caller's
	// deadline the worker sits out one cycle before taking new work.
	if hasDeadline && time.Now().After(deadline) {
		wlog.WithField("overrun", time.Since(deadline)).Warn("Compute outlived its deadline, quarantining worker for one cycle")
		select {
		case <-p.quit:
		case <-time.After(p.cfg.Quarantine):
		}
	}
}

// safeCalc runs the compute function, converting panics into typed faults and
// restarting the engine with freshly initialized kernels.
func (p *Pool) safeCalc(wlog *logrus.Entry, eng **ephemeris.Engine, args Args) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			wlog.WithField("panic", r).Error("Worker faulted, reinitializing kernels")
			p.recordFault()
			res, err = nil, ErrWorkerFault

			(*eng).Close()
			fresh, openErr := ephemeris.Open(p.cfg.BundleDir)
			if openErr != nil {
				wlog.WithError(openErr).Error("Could not reinitialize kernels after fault")
				return
			}
			*eng = fresh
		}
	}()
	return p.calc(*eng, args)
}

// computeAll is the production compute function: one primitive call per body.
func computeAll(eng *ephemeris.Engine, args Args) (*Result, error) {
	states := make(map[astro.Body]ephemeris.State, len(args.Bodies))
	for _, b := range args.Bodies {
		st, err := eng.Compute(args.JD, b.ID())
		if err != nil {
			return nil, err
		}
		states[b] = st
	}
	return &Result{States: states}, nil
}
