// Package gamma fits two-parameter Gamma distributions to accumulation series.
package gamma

// Option applies a configuration option to the Fitter.
type Option func(*Fitter)

// WithMaxIterations caps the optimiser's major iterations.
func WithMaxIterations(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// WithTolerance sets the relative tolerance on the likelihood score equation
// that a result must satisfy to be accepted.
func WithTolerance(tol float64) Option {
	return func(f *Fitter) {
		if tol > 0 {
			f.tolerance = tol
		}
	}
}
