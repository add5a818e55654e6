// Package spi converts between precipitation amounts and Standardized
// Precipitation Index values under a fitted Gamma distribution.
package spi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/drought/internal/domain/model"
)

// Forward returns the SPI of amount: the standard normal quantile of the
// Gamma CDF at amount. Negative amounts are treated as zero. A CDF of exactly
// zero maps to -Inf and a CDF of one maps to +Inf.
func Forward(amount float64, p model.GammaParams) (float64, error) {
	dist, err := distribution(p)
	if err != nil {
		return 0, err
	}
	if amount < 0 || math.IsNaN(amount) {
		amount = 0
	}

	prob := dist.CDF(amount)
	switch {
	case prob <= 0:
		return math.Inf(-1), nil
	case prob >= 1:
		return math.Inf(1), nil
	}
	return distuv.UnitNormal.Quantile(prob), nil
}

// Inverse returns the amount whose SPI is spi. Probabilities that round to
// zero give 0 and those that round to one give +Inf.
func Inverse(spi float64, p model.GammaParams) (float64, error) {
	dist, err := distribution(p)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(spi) {
		return math.NaN(), nil
	}

	prob := distuv.UnitNormal.CDF(spi)
	switch {
	case prob <= 0:
		return 0, nil
	case prob >= 1:
		return math.Inf(1), nil
	case prob <= 0.5:
		return lowerQuantile(dist, prob), nil
	}
	return dist.Quantile(prob), nil
}

const (
	newtonSteps   = 60
	newtonTol     = 1e-12
	newtonMaxStep = 20.0
)

// lowerQuantile solves CDF(x) = prob below the median. gonum's quantile
// stops near 1e-16, which shapes below one reach at moderate droughts, so
// the estimate is polished with Newton steps on log CDF against log x.
// Near zero log CDF is almost linear in log x with slope alpha.
func lowerQuantile(dist distuv.Gamma, prob float64) float64 {
	x := dist.Quantile(prob)
	if !(x > 0) || math.IsInf(x, 0) {
		// CDF(x) ~ (rate*x)^alpha / Gamma(alpha+1) as x -> 0
		lg, _ := math.Lgamma(dist.Alpha + 1)
		x = math.Exp((math.Log(prob)+lg)/dist.Alpha) / dist.Beta
	}

	target := math.Log(prob)
	u := math.Log(x)
	for i := 0; i < newtonSteps; i++ {
		x = math.Exp(u)
		cdf := dist.CDF(x)
		if cdf <= 0 {
			u += 1
			continue
		}
		slope := x * dist.Prob(x) / cdf
		step := (math.Log(cdf) - target) / slope
		if math.IsNaN(step) || math.IsInf(step, 0) {
			break
		}
		step = math.Max(-newtonMaxStep, math.Min(newtonMaxStep, step))
		u -= step
		if math.Abs(step) < newtonTol {
			break
		}
	}
	return math.Exp(u)
}

// Validate reports ErrInvalidDistribution unless alpha and beta are positive
// and finite.
func Validate(p model.GammaParams) error {
	_, err := distribution(p)
	return err
}

// distribution builds the Gamma with location 0. gonum parameterises the
// Gamma by rate, so the stored scale is inverted.
func distribution(p model.GammaParams) (distuv.Gamma, error) {
	if !(p.Alpha > 0) || !(p.Beta > 0) || math.IsInf(p.Alpha, 0) || math.IsInf(p.Beta, 0) {
		return distuv.Gamma{}, fmt.Errorf("alpha=%v beta=%v: %w", p.Alpha, p.Beta, ErrInvalidDistribution)
	}
	return distuv.Gamma{Alpha: p.Alpha, Beta: 1 / p.Beta}, nil
}
