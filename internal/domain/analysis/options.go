// Package analysis runs the full SPI pipeline for one location: rolling
// sums, Gamma fits, chronological SPI, threshold events and their
// seasonal breakdown.
package analysis

import (
	"github.com/okian/drought/internal/domain/accumulate"
	"github.com/okian/drought/internal/domain/events"
	"github.com/okian/drought/internal/domain/gamma"
	"github.com/okian/drought/internal/domain/season"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithTimescales sets the accumulation windows in months.
func WithTimescales(ts ...int) Option {
	return func(a *Analyzer) {
		if len(ts) > 0 {
			a.timescales = append([]int(nil), ts...)
		}
	}
}

// WithThresholds sets the SPI thresholds events are segmented at.
func WithThresholds(th []float64) Option {
	return func(a *Analyzer) {
		if len(th) > 0 {
			a.thresholds = append([]float64(nil), th...)
		}
	}
}

// WithSeverityLevels sets the SPI values of the rainfall table.
func WithSeverityLevels(levels []float64) Option {
	return func(a *Analyzer) {
		if len(levels) > 0 {
			a.levels = append([]float64(nil), levels...)
		}
	}
}

// WithObservationMonths fixes the observation window used for cumulative
// duration percentages. Zero derives it from the record count.
func WithObservationMonths(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.observation = n
		}
	}
}

// WithAccumulator replaces the accumulator.
func WithAccumulator(acc *accumulate.Accumulator) Option {
	return func(a *Analyzer) {
		if acc != nil {
			a.accumulator = acc
		}
	}
}

// WithFitter replaces the Gamma fitter.
func WithFitter(f *gamma.Fitter) Option {
	return func(a *Analyzer) {
		if f != nil {
			a.fitter = f
		}
	}
}

// WithSegmenter replaces the event segmenter.
func WithSegmenter(s *events.Segmenter) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.segmenter = s
		}
	}
}

// WithAggregator replaces the seasonal aggregator.
func WithAggregator(agg *season.Aggregator) Option {
	return func(a *Analyzer) {
		if agg != nil {
			a.aggregator = agg
		}
	}
}

// WithParamStore memoises fits in store and reuses any params already there.
func WithParamStore(store ParamStore) Option {
	return func(a *Analyzer) {
		a.params = store
	}
}
