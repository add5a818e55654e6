package gamma_test

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/drought/internal/domain/gamma"
	"github.com/okian/drought/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// quantileSample returns n evenly spaced quantiles of a Gamma distribution,
// a deterministic stand-in for a random sample.
func quantileSample(alpha, scale float64, n int) []float64 {
	g := distuv.Gamma{Alpha: alpha, Beta: 1 / scale}
	out := make([]float64, n)
	for i := range out {
		out[i] = g.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out
}

func TestFitter_Fit(t *testing.T) {
	Convey("Given a fitter with default options", t, func() {
		fitter := gamma.NewFitter()

		Convey("When fitting a sample drawn from Gamma(2.5, scale 1.2)", func() {
			samples := quantileSample(2.5, 1.2, 400)
			p, err := fitter.Fit(samples)

			Convey("Then the parameters are close to the generating ones", func() {
				So(err, ShouldBeNil)
				So(p.Alpha, ShouldAlmostEqual, 2.5, 0.25)
				So(p.Beta, ShouldAlmostEqual, 1.2, 0.12)
				So(p.Loc, ShouldEqual, model.FitLoc)
			})

			Convey("And they satisfy the likelihood equations", func() {
				var sum, sumLog float64
				for _, x := range samples {
					sum += x - model.FitLoc
					sumLog += math.Log(x - model.FitLoc)
				}
				n := float64(len(samples))
				s := math.Log(sum/n) - sumLog/n
				So(math.Log(p.Alpha)-mathext.Digamma(p.Alpha), ShouldAlmostEqual, s, 1e-6)
				So(p.Alpha*p.Beta, ShouldAlmostEqual, sum/n, 1e-9)
			})
		})

		Convey("When fitting a series that contains exact zeros", func() {
			samples := []float64{0, 0.4, 1.3, 2.2, 0, 3.1, 0.9}
			p, err := fitter.Fit(samples)

			Convey("Then it still produces a positive fit without zero correction", func() {
				So(err, ShouldBeNil)
				So(p.Alpha, ShouldBeGreaterThan, 0)
				So(p.Alpha, ShouldBeLessThan, 1)
				So(p.Beta, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When fitting a single repeated value", func() {
			_, err := fitter.Fit([]float64{2.4, 2.4, 2.4, 2.4})

			Convey("Then it reports insufficient data instead of a degenerate fit", func() {
				So(errors.Is(err, gamma.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When fitting fewer than two distinct positive values", func() {
			_, err1 := fitter.Fit(nil)
			_, err2 := fitter.Fit([]float64{0, 0, 1.5})

			Convey("Then both fail with insufficient data", func() {
				So(errors.Is(err1, gamma.ErrInsufficientData), ShouldBeTrue)
				So(errors.Is(err2, gamma.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When a sample is negative", func() {
			_, err := fitter.Fit([]float64{1, 2, -0.5})
			So(errors.Is(err, gamma.ErrNegativeSample), ShouldBeTrue)
		})

		Convey("When the optimiser is given no room to converge", func() {
			strict := gamma.NewFitter(gamma.WithMaxIterations(1), gamma.WithTolerance(1e-300))
			_, err := strict.Fit(quantileSample(0.7, 3, 50))

			Convey("Then the result is reported as divergent", func() {
				So(errors.Is(err, gamma.ErrFitDivergence), ShouldBeTrue)
			})
		})
	})
}

func TestFitter_FitAll(t *testing.T) {
	Convey("Given accumulations with good, empty and constant series", t, func() {
		good := model.Key{Location: "A", Month: 1, Timescale: 1}
		empty := model.Key{Location: "A", Month: 2, Timescale: 1}
		flat := model.Key{Location: "B", Month: 1, Timescale: 1}
		acc := model.AccumulationSeries{
			good:  quantileSample(3, 0.8, 60),
			empty: {},
			flat:  {1, 1, 1},
		}

		fitted, failures := gamma.NewFitter().FitAll(acc)

		Convey("Then good keys are fitted and the rest are reported", func() {
			So(fitted, ShouldHaveLength, 1)
			So(fitted[0].Key, ShouldResemble, good)
			So(failures, ShouldHaveLength, 2)
			stages := map[model.Key]string{}
			for _, f := range failures {
				stages[f.Key] = f.Stage
			}
			So(stages[empty], ShouldEqual, "accumulate")
			So(stages[flat], ShouldEqual, "fit")
		})
	})
}
