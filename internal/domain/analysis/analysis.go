package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/drought/internal/domain/accumulate"
	"github.com/okian/drought/internal/domain/events"
	"github.com/okian/drought/internal/domain/gamma"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/okian/drought/internal/domain/spi"
)

// DefaultTimescales are the accumulation windows analysed when none are set.
var DefaultTimescales = []int{1, 3, 6, 9, 12}

// ParamStore is where fitted parameters are memoised.
type ParamStore interface {
	Get(ctx context.Context, key model.Key) (model.GammaParams, error)
	Put(ctx context.Context, key model.Key, params model.GammaParams) error
}

// SeasonRow is the seasonal summary of one (timescale, threshold) pair.
type SeasonRow struct {
	Timescale int
	Threshold float64
	Summary   model.Summary
}

// Report is everything computed for one location.
type Report struct {
	Location string
	Months   int
	Params   []model.FittedParams
	Reused   int
	Failures []model.Failure
	Series   map[int][]model.Point
	Events   []model.Event
	Stats    []events.Stats
	Rainfall []spi.RainfallRow
	Seasons  []SeasonRow
	FitTime  time.Duration
}

// Evaluations returns the number of valid SPI values in the report.
func (r *Report) Evaluations() int {
	n := 0
	for _, pts := range r.Series {
		for _, p := range pts {
			if p.Valid() {
				n++
			}
		}
	}
	return n
}

// Analyzer runs the per-location pipeline. It holds no per-job state and
// may be shared between goroutines as long as its ParamStore is safe.
type Analyzer struct {
	accumulator *accumulate.Accumulator
	fitter      *gamma.Fitter
	segmenter   *events.Segmenter
	aggregator  *season.Aggregator
	params      ParamStore
	timescales  []int
	thresholds  []float64
	levels      []float64
	observation int
}

// New creates an Analyzer with default components and a single -1.0
// drought threshold.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		accumulator: accumulate.New(),
		fitter:      gamma.NewFitter(),
		segmenter:   events.New(),
		aggregator:  season.New(),
		timescales:  DefaultTimescales,
		thresholds:  []float64{-1.0},
		levels:      spi.SeverityLevels,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze processes one job. Per-key problems are recorded as failures in
// the report; only job-level problems and cancellation return an error.
func (a *Analyzer) Analyze(ctx context.Context, job model.Job) (*Report, error) {
	if len(job.Records) == 0 {
		return nil, fmt.Errorf("job %d %q: %w", job.ID, job.Location, ErrEmptyJob)
	}
	records := make([]model.Record, len(job.Records))
	copy(records, job.Records)
	model.SortRecords(records)
	for _, r := range records {
		if r.Location != job.Location {
			return nil, fmt.Errorf("job %d: %q and %q: %w", job.ID, job.Location, r.Location, ErrMixedLocation)
		}
	}

	rep := &Report{
		Location: job.Location,
		Months:   len(records),
		Series:   make(map[int][]model.Point, len(a.timescales)),
	}

	acc, err := a.accumulator.AccumulateAll(model.BuildSeries(records), a.timescales)
	if err != nil {
		return nil, fmt.Errorf("job %d %q: %w", job.ID, job.Location, err)
	}

	fitted, err := a.fit(ctx, acc, rep)
	if err != nil {
		return nil, err
	}

	for _, f := range fitted {
		rows, err := spi.RainfallTable(f.Key, f.Params, a.levels)
		if err != nil {
			rep.Failures = append(rep.Failures, model.Failure{Key: f.Key, Stage: model.StageRainfall, Reason: err.Error()})
			continue
		}
		rep.Rainfall = append(rep.Rainfall, rows...)
	}

	lookup := lookupOf(fitted)
	observation := a.observation
	if observation == 0 {
		observation = len(records)
	}
	for _, ts := range a.timescales {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points := spi.Series(records, ts, lookup)
		rep.Series[ts] = points

		for _, th := range a.thresholds {
			evts := a.segmenter.Segment(job.Location, ts, points, th)
			rep.Events = append(rep.Events, evts...)

			if st, err := a.segmenter.Summarize(job.Location, ts, points, th, observation); err == nil {
				rep.Stats = append(rep.Stats, st)
			}
			rep.Seasons = append(rep.Seasons, SeasonRow{
				Timescale: ts,
				Threshold: th,
				Summary:   a.aggregator.Summarize(job.Location, evts),
			})
		}
	}
	return rep, nil
}

// fit resolves parameters for every key, preferring ones already stored.
func (a *Analyzer) fit(ctx context.Context, acc model.AccumulationSeries, rep *Report) ([]model.FittedParams, error) {
	start := time.Now()
	defer func() { rep.FitTime = time.Since(start) }()

	var fitted []model.FittedParams
	for _, key := range acc.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.params != nil {
			if p, err := a.params.Get(ctx, key); err == nil {
				fitted = append(fitted, model.FittedParams{Key: key, Params: p})
				rep.Reused++
				continue
			}
		}

		samples := acc[key]
		if len(samples) == 0 {
			rep.Failures = append(rep.Failures, model.Failure{Key: key, Stage: model.StageAccumulate, Reason: "empty window"})
			continue
		}
		p, err := a.fitter.Fit(samples)
		if err != nil {
			rep.Failures = append(rep.Failures, model.Failure{Key: key, Stage: model.StageFit, Reason: err.Error()})
			continue
		}
		if a.params != nil {
			if err := a.params.Put(ctx, key, p); err != nil {
				rep.Failures = append(rep.Failures, model.Failure{Key: key, Stage: model.StageStore, Reason: err.Error()})
				continue
			}
		}
		fitted = append(fitted, model.FittedParams{Key: key, Params: p})
	}
	rep.Params = fitted
	return fitted, nil
}

func lookupOf(fitted []model.FittedParams) spi.Lookup {
	m := make(map[model.Key]model.GammaParams, len(fitted))
	for _, f := range fitted {
		m[f.Key] = f.Params
	}
	return func(k model.Key) (model.GammaParams, bool) {
		p, ok := m[k]
		return p, ok
	}
}
