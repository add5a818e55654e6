package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/drought/internal/adapters/mq/queue"
	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/pkg/logger"
	"github.com/okian/drought/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Analyzer computes the report for one location.
type Analyzer interface {
	Analyze(ctx context.Context, job model.Job) (*analysis.Report, error)
}

// Collector receives the outcome of every job. Implementations must be safe
// for concurrent use.
type Collector interface {
	Collect(ctx context.Context, report *analysis.Report)
	Fail(ctx context.Context, job model.Job, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until the queue drains or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	analyzer  Analyzer
	collector Collector
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger

	// called after every job; set by the pool
	onProcessed func()
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, analyzer Analyzer, collector Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		analyzer:  analyzer,
		collector: collector,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
			if w.onProcessed != nil {
				w.onProcessed()
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process analyses one location and hands the outcome to the collector.
func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rep, err := w.analyzer.Analyze(ctx, j)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
		w.logger.Error(ctx, "analysis failed",
			logger.Int("job", j.ID),
			logger.String("location", j.Location),
			logger.Error(err),
		)
		w.collector.Fail(ctx, j, err)
		return
	}

	metrics.RecordLocationProcessed()
	metrics.RecordSPIEvaluations(rep.Evaluations())
	if fresh := len(rep.Params) - rep.Reused; fresh > 0 {
		perFit := float64(rep.FitTime.Microseconds()) / 1000 / float64(fresh)
		for i := 0; i < fresh; i++ {
			metrics.RecordFit(perFit)
		}
	}
	for _, f := range rep.Failures {
		metrics.RecordFitFailure(f.Stage)
	}
	w.logger.Debug(ctx, "location analysed",
		logger.String("location", j.Location),
		logger.Int("keys", len(rep.Params)),
		logger.Int("reused", rep.Reused),
		logger.Int("failures", len(rep.Failures)),
		logger.Int("events", len(rep.Events)),
		logger.Duration("fit_time", rep.FitTime),
	)
	w.collector.Collect(ctx, rep)
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	analyzer  Analyzer
	collector Collector

	processed atomic.Int64
	active    atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, analyzer Analyzer, collector Collector, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		analyzer:  analyzer,
		collector: collector,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, analyzer, collector,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		w.onProcessed = func() { p.processed.Add(1) }
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled so far.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.active.Add(1)
		metrics.UpdateWorkerActiveCount(int(p.active.Load()))
		go func(w *InMemoryWorker) {
			defer func() {
				metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
			}()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained, the pool is shut down, or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown closes the queue if it can be closed and stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
