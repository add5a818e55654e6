// Package service runs SPI batches over the worker pool and answers the
// lookups required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/okian/drought/internal/adapters/mq/queue"
	workerpool "github.com/okian/drought/internal/adapters/mq/worker"
	"github.com/okian/drought/internal/adapters/repository"
	"github.com/okian/drought/internal/adapters/tabular"
	"github.com/okian/drought/internal/domain/accumulate"
	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/events"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/okian/drought/internal/domain/spi"
	"github.com/okian/drought/pkg/logger"
	"github.com/okian/drought/pkg/metrics"
)

// Service runs batches and serves lookups from the parameters of the
// latest run. Each run fits into a fresh store seeded only with the
// parameters given to LoadParams, so fits never leak from one dataset into
// the next.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	ctx       context.Context
	store     *repository.ShardedStore
	seeds     []model.FittedParams
	scheduler *scheduler

	workerCount int
	queueSize   int
	shardCount  int
	timescales  []int
	thresholds  []float64
	policy      season.Policy
	direction   model.Direction
	unit        model.Unit
	precision   int
	observation int

	clock  clockwork.Clock
	logger logger.Logger

	started bool
	latest  *Results
	runs    int
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		shardCount:  8,
		timescales:  analysis.DefaultTimescales,
		thresholds:  []float64{-1.0},
		policy:      season.ReliefPolicy(),
		direction:   model.Drought,
		unit:        model.Steps,
		precision:   2,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the parameter store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.ctx = ctx
	s.store = s.newStore(ctx)
	s.started = true
	s.logger.Info(ctx, "drought service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("shards", s.shardCount),
		logger.Any("timescales", s.timescales),
		logger.Int("thresholds", len(s.thresholds)),
	)
	return nil
}

// Stop halts the scheduler and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	sc := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()
	// a scheduled run may need s.mu to finish
	if sc != nil {
		sc.stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "drought service stopped")
}

func (s *Service) newStore(ctx context.Context) *repository.ShardedStore {
	return repository.NewShardedStore(ctx, repository.WithShardCount(s.shardCount))
}

// LoadParams seeds every later run with previously fitted parameters and
// makes them available to lookups straight away.
func (s *Service) LoadParams(ctx context.Context, fitted []model.FittedParams) error {
	store, err := s.paramStore()
	if err != nil {
		return err
	}
	if err := store.Load(ctx, fitted); err != nil {
		return err
	}
	s.mu.Lock()
	s.seeds = append(s.seeds, fitted...)
	s.mu.Unlock()
	return nil
}

// runStore returns a new store holding only the seeded parameters.
func (s *Service) runStore(ctx context.Context) (*repository.ShardedStore, error) {
	s.mu.RLock()
	started, base := s.started, s.ctx
	seeds := append([]model.FittedParams(nil), s.seeds...)
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	store := s.newStore(base)
	if err := store.Load(ctx, seeds); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed parameters: %w", err)
	}
	return store, nil
}

func (s *Service) paramStore() (*repository.ShardedStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

func (s *Service) analyzer(store analysis.ParamStore) *analysis.Analyzer {
	return analysis.New(
		analysis.WithTimescales(s.timescales...),
		analysis.WithThresholds(s.thresholds),
		analysis.WithObservationMonths(s.observation),
		analysis.WithAccumulator(accumulate.New(accumulate.WithPrecision(s.precision))),
		analysis.WithSegmenter(events.New(events.WithDirection(s.direction), events.WithUnit(s.unit))),
		analysis.WithAggregator(season.New(season.WithPolicy(s.policy))),
		analysis.WithParamStore(store),
	)
}

// Run analyses every location in records on a fresh queue, worker pool and
// parameter store. Runs are serialised. A failing location is recorded and
// does not stop the batch; only cancellation does. Lookups switch to the
// new parameters once the run completes.
func (s *Service) Run(ctx context.Context, records []model.Record) (*Results, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	store, err := s.runStore(ctx)
	if err != nil {
		return nil, err
	}
	published := false
	defer func() {
		if !published {
			_ = store.Close()
		}
	}()

	res := &Results{RunID: uuid.NewString(), Started: s.clock.Now(), Unit: s.unit}
	log := s.logger.With(logger.String("run", res.RunID))

	groups := model.GroupRecords(records)
	locations := make([]string, 0, len(groups))
	for loc := range groups {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	log.Info(ctx, "batch started", logger.Int("locations", len(locations)), logger.Int("records", len(records)))

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	col := &collector{}
	pool := workerpool.NewPool(s.workerCount, q, s.analyzer(store), col, workerpool.WithPoolLogger(log))

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool.Start(poolCtx)

	for i, loc := range locations {
		job := model.Job{ID: i, Location: loc, Records: groups[loc]}
		if err := q.EnqueueWait(ctx, job); err != nil {
			_ = q.Close()
			cancel()
			_ = pool.Wait(context.Background())
			return nil, fmt.Errorf("enqueue %q: %w", loc, err)
		}
	}
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(col.reports, func(i, j int) bool { return col.reports[i].Location < col.reports[j].Location })
	sort.Slice(col.failures, func(i, j int) bool { return col.failures[i].Key.Location < col.failures[j].Key.Location })
	res.Reports = col.reports
	res.locationFailures = col.failures
	res.Finished = s.clock.Now()

	metrics.RecordEvents(s.direction.String(), len(res.Events()))
	metrics.RecordBatch(res.Finished.Sub(res.Started).Seconds(), res.Finished.Unix())

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	old := s.store
	s.store = store
	s.latest = res
	s.runs++
	s.mu.Unlock()
	published = true
	// readers holding the old store can still use it; Close only stops its metrics
	_ = old.Close()

	log.Info(ctx, "batch finished",
		logger.Int("locations", len(res.Reports)),
		logger.Int("params", len(res.Params())),
		logger.Int("reused", res.Reused()),
		logger.Int("events", len(res.Events())),
		logger.Int("failures", len(res.Failures())),
		logger.Duration("elapsed", res.Finished.Sub(res.Started)),
	)
	return res, nil
}

// RunDir reads every totals file in inputDir, runs the batch and writes the
// result tables to outputDir.
func (s *Service) RunDir(ctx context.Context, inputDir, outputDir string) (*Results, error) {
	records, err := tabular.ReadTotalsDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inputDir, err)
	}
	res, err := s.Run(ctx, records)
	if err != nil {
		return nil, err
	}
	if err := res.Write(outputDir); err != nil {
		return nil, fmt.Errorf("write %s: %w", outputDir, err)
	}
	return res, nil
}

// Latest returns the most recent completed run.
func (s *Service) Latest() (*Results, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRun
	}
	return s.latest, nil
}

// SPI returns the SPI of amount under the stored distribution for key,
// together with its severity category.
func (s *Service) SPI(ctx context.Context, key model.Key, amount float64) (float64, string, error) {
	p, err := s.params(ctx, key)
	if err != nil {
		return 0, "", err
	}
	v, err := spi.Forward(amount, p)
	if err != nil {
		return 0, "", err
	}
	return v, spi.Classify(v), nil
}

// Rainfall returns the accumulation that yields value under key's distribution.
func (s *Service) Rainfall(ctx context.Context, key model.Key, value float64) (float64, error) {
	p, err := s.params(ctx, key)
	if err != nil {
		return 0, err
	}
	return spi.Inverse(value, p)
}

func (s *Service) params(ctx context.Context, key model.Key) (model.GammaParams, error) {
	store, err := s.paramStore()
	if err != nil {
		return model.GammaParams{}, err
	}
	return store.Get(ctx, key)
}

// Params returns stored parameters for a location, or all of them when
// location is empty.
func (s *Service) Params(ctx context.Context, location string) ([]model.FittedParams, error) {
	store, err := s.paramStore()
	if err != nil {
		return nil, err
	}
	if location == "" {
		return store.All(ctx), nil
	}
	return store.ByLocation(ctx, location)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"runs":        s.runs,
	}
	if s.started {
		ctx := context.Background()
		stats["storedParams"] = s.store.Count(ctx)
		stats["locations"] = len(s.store.Locations(ctx))
	}
	if s.latest != nil {
		stats["lastRun"] = s.latest.RunID
		stats["lastFinished"] = s.latest.Finished.UTC().Format(time.RFC3339)
		stats["lastEvents"] = len(s.latest.Events())
		stats["lastFailures"] = len(s.latest.Failures())
	}
	if s.scheduler != nil {
		if next := s.scheduler.next(); !next.IsZero() {
			stats["nextRun"] = next.UTC().Format(time.RFC3339)
		}
	}
	return stats
}

// IsNotFound reports whether err means no parameters exist for a key.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
