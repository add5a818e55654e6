package synth

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithShape sets the Gamma shape and scale of an average month.
func WithShape(alpha, scale float64) Option {
	return func(g *Generator) {
		if alpha > 0 && scale > 0 {
			g.alpha, g.scale = alpha, scale
		}
	}
}

// WithSeasonality sets the relative amplitude of the annual cycle in the
// monthly scale, peaking in January. It is clamped to [0, 0.95].
func WithSeasonality(amp float64) Option {
	return func(g *Generator) {
		switch {
		case amp < 0:
			amp = 0
		case amp > 0.95:
			amp = 0.95
		}
		g.seasonality = amp
	}
}

// WithPeriod sets the first year and the number of years generated.
func WithPeriod(startYear, years int) Option {
	return func(g *Generator) {
		if years > 0 {
			g.startYear, g.years = startYear, years
		}
	}
}

// WithSeed fixes the random stream.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}
