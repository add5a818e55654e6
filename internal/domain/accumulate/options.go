// Package accumulate builds multi-month precipitation sums.
package accumulate

// Option applies a configuration option to the Accumulator.
type Option func(*Accumulator)

// WithPrecision rounds every sum to the given number of decimals.
// A negative precision keeps sums unrounded.
func WithPrecision(decimals int) Option {
	return func(a *Accumulator) {
		a.precision = decimals
	}
}
