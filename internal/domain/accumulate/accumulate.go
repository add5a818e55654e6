// Package accumulate builds multi-month precipitation sums.
//
// Windows are aligned by sample index rather than by calendar year: the i-th
// sum of a window starting in month M adds the i-th total of M, M+1, ...,
// M+T-1. Each window is truncated to its shortest constituent month.
package accumulate

import (
	"fmt"
	"math"

	"github.com/okian/drought/internal/domain/model"
)

const defaultPrecision = 2

// Accumulator produces rolling T-month sums from a PrecipitationSeries.
type Accumulator struct {
	precision int
}

// New creates an Accumulator. Sums are rounded to two decimals unless
// overridden with WithPrecision.
func New(opts ...Option) *Accumulator {
	a := &Accumulator{precision: defaultPrecision}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Accumulate returns the T-month sums for every location and starting month
// present in series. A window whose constituent month has no samples yields
// an empty entry.
func (a *Accumulator) Accumulate(series model.PrecipitationSeries, timescale int) (model.AccumulationSeries, error) {
	if timescale < 1 {
		return nil, fmt.Errorf("accumulate %d months: %w", timescale, ErrInvalidTimescale)
	}

	out := make(model.AccumulationSeries)
	for loc, months := range series {
		for start := range months {
			key := model.Key{Location: loc, Month: start, Timescale: timescale}
			out[key] = a.window(months, start, timescale)
		}
	}
	return out, nil
}

// AccumulateAll runs Accumulate for each timescale and merges the results.
func (a *Accumulator) AccumulateAll(series model.PrecipitationSeries, timescales []int) (model.AccumulationSeries, error) {
	out := make(model.AccumulationSeries)
	for _, ts := range timescales {
		acc, err := a.Accumulate(series, ts)
		if err != nil {
			return nil, err
		}
		for k, v := range acc {
			out[k] = v
		}
	}
	return out, nil
}

// Window exposes the sum for a single starting month.
func (a *Accumulator) Window(months map[model.Month][]float64, start model.Month, timescale int) ([]float64, error) {
	if timescale < 1 {
		return nil, fmt.Errorf("accumulate %d months: %w", timescale, ErrInvalidTimescale)
	}
	return a.window(months, start, timescale), nil
}

func (a *Accumulator) window(months map[model.Month][]float64, start model.Month, timescale int) []float64 {
	n := math.MaxInt
	for k := 0; k < timescale; k++ {
		n = min(n, len(months[start.Add(k)]))
	}
	if n == 0 {
		return []float64{}
	}

	sums := make([]float64, n)
	for i := range sums {
		var total float64
		for k := 0; k < timescale; k++ {
			total += months[start.Add(k)][i]
		}
		sums[i] = a.round(total)
	}
	return sums
}

func (a *Accumulator) round(v float64) float64 {
	if a.precision < 0 {
		return v
	}
	scale := math.Pow(10, float64(a.precision))
	return math.Round(v*scale) / scale
}
