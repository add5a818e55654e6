// Package gamma fits two-parameter Gamma distributions to accumulation series.
//
// The location is pinned at model.FitLoc and shape/scale are estimated by
// maximum likelihood. For a fixed location the scale has the closed form
// mean/alpha, so only the profile likelihood in alpha is optimised.
package gamma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/drought/internal/domain/model"
)

// Default fitting configuration constants.
const (
	defaultMaxIterations = 200
	defaultTolerance     = 1e-6
	minLogAlpha          = -30.0
	maxLogAlpha          = 30.0
)

// Fitter estimates Gamma parameters by maximum likelihood.
type Fitter struct {
	maxIterations int
	tolerance     float64
}

// NewFitter creates a Fitter with configuration options.
func NewFitter(opts ...Option) *Fitter {
	f := &Fitter{
		maxIterations: defaultMaxIterations,
		tolerance:     defaultTolerance,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit estimates (alpha, beta) for samples with the location fixed at
// model.FitLoc. It fails with ErrInsufficientData when fewer than two
// distinct positive values are present and with ErrFitDivergence when the
// optimiser does not reach a stationary point.
func (f *Fitter) Fit(samples []float64) (model.GammaParams, error) {
	if len(samples) > 0 && floats.Min(samples) < 0 {
		return model.GammaParams{}, ErrNegativeSample
	}
	if distinctPositive(samples) < 2 {
		return model.GammaParams{}, fmt.Errorf("%d samples: %w", len(samples), ErrInsufficientData)
	}

	shifted := make([]float64, len(samples))
	logs := make([]float64, len(samples))
	for i, x := range samples {
		shifted[i] = x - model.FitLoc
		logs[i] = math.Log(shifted[i])
	}
	mean := stat.Mean(shifted, nil)
	meanLog := stat.Mean(logs, nil)
	s := math.Log(mean) - meanLog
	if !(s > 0) || math.IsInf(s, 0) {
		return model.GammaParams{}, fmt.Errorf("log-mean gap %v: %w", s, ErrFitDivergence)
	}

	// Negative mean log-likelihood per sample as a function of u = log(alpha).
	objective := func(x []float64) float64 {
		u := clamp(x[0])
		a := math.Exp(u)
		lg, _ := math.Lgamma(a)
		return -((a-1)*meanLog - a - lg - a*math.Log(mean/a))
	}
	gradient := func(grad, x []float64) {
		u := clamp(x[0])
		a := math.Exp(u)
		grad[0] = -a * score(a, s)
	}

	problem := optimize.Problem{Func: objective, Grad: gradient}
	settings := &optimize.Settings{
		GradientThreshold: 1e-12,
		MajorIterations:   f.maxIterations,
	}
	result, optErr := optimize.Minimize(problem, []float64{math.Log(thom(s))}, settings, &optimize.BFGS{})
	if result == nil {
		return model.GammaParams{}, fmt.Errorf("optimize: %v: %w", optErr, ErrFitDivergence)
	}

	alpha := math.Exp(clamp(result.X[0]))
	beta := mean / alpha
	if residual := math.Abs(score(alpha, s)); residual > f.tolerance*math.Max(1, s) {
		return model.GammaParams{}, fmt.Errorf("score residual %.3g after %d iterations (%v): %w",
			residual, result.MajorIterations, optErr, ErrFitDivergence)
	}
	if !isPositiveFinite(alpha) || !isPositiveFinite(beta) {
		return model.GammaParams{}, fmt.Errorf("alpha=%v beta=%v: %w", alpha, beta, ErrFitDivergence)
	}

	return model.GammaParams{Alpha: alpha, Loc: model.FitLoc, Beta: beta}, nil
}

// FitAll fits every non-empty series in acc. Keys that fail are reported and
// skipped; fitting continues with the remaining keys.
func (f *Fitter) FitAll(acc model.AccumulationSeries) ([]model.FittedParams, []model.Failure) {
	var (
		fitted   []model.FittedParams
		failures []model.Failure
	)
	for _, key := range acc.Keys() {
		samples := acc[key]
		if len(samples) == 0 {
			failures = append(failures, model.Failure{Key: key, Stage: model.StageAccumulate, Reason: "empty window"})
			continue
		}
		p, err := f.Fit(samples)
		if err != nil {
			failures = append(failures, model.Failure{Key: key, Stage: model.StageFit, Reason: err.Error()})
			continue
		}
		fitted = append(fitted, model.FittedParams{Key: key, Params: p})
	}
	return fitted, failures
}

// score is the derivative of the profile log-likelihood with respect to
// alpha: log(alpha) - digamma(alpha) - s. It is zero at the MLE.
func score(alpha, s float64) float64 {
	return math.Log(alpha) - mathext.Digamma(alpha) - s
}

// thom returns Thom's approximation to the shape MLE.
func thom(s float64) float64 {
	return (1 + math.Sqrt(1+4*s/3)) / (4 * s)
}

func clamp(u float64) float64 {
	return math.Max(minLogAlpha, math.Min(maxLogAlpha, u))
}

func distinctPositive(samples []float64) int {
	seen := make(map[float64]struct{}, len(samples))
	for _, x := range samples {
		if x > 0 {
			seen[x] = struct{}{}
		}
	}
	return len(seen)
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
