// Package synth generates synthetic monthly precipitation histories.
package synth

import (
	"hash/fnv"
	"io"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/drought/internal/adapters/tabular"
	"github.com/okian/drought/internal/domain/model"
)

// Generator draws monthly totals from a seasonally varying Gamma.
type Generator struct {
	alpha       float64
	scale       float64
	seasonality float64
	startYear   int
	years       int
	seed        uint64
}

// New creates a generator for 30 years from 1991 with shape 2 and scale 1.5.
func New(opts ...Option) *Generator {
	g := &Generator{
		alpha:       2,
		scale:       1.5,
		seasonality: 0.3,
		startYear:   1991,
		years:       30,
		seed:        1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MonthScale is the Gamma scale used for month m.
func (g *Generator) MonthScale(m model.Month) float64 {
	phase := 2 * math.Pi * float64(m-1) / 12
	return g.scale * (1 + g.seasonality*math.Cos(phase))
}

// Records returns the chronological history of location. The same seed
// and location always give the same history; different locations differ.
func (g *Generator) Records(location string) []model.Record {
	h := fnv.New64a()
	_, _ = h.Write([]byte(location))
	src := rand.NewPCG(g.seed, h.Sum64())

	var dists [12]distuv.Gamma
	for i, m := range model.Months {
		dists[i] = distuv.Gamma{Alpha: g.alpha, Beta: 1 / g.MonthScale(m), Src: src}
	}

	out := make([]model.Record, 0, g.years*12)
	for y := 0; y < g.years; y++ {
		for i, m := range model.Months {
			total := math.Round(dists[i].Rand()*100) / 100
			out = append(out, model.Record{Location: location, Year: g.startYear + y, Month: m, Total: total})
		}
	}
	return out
}

// Write writes location's history as a totals table.
func (g *Generator) Write(w io.Writer, location string) error {
	return tabular.WriteTotals(w, g.Records(location))
}

// WriteDir writes one totals file per location into dir and returns the
// file names.
func (g *Generator) WriteDir(dir string, locations []string) ([]string, error) {
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		name := tabular.FilenameForLocation(loc)
		if err := tabular.WriteFile(dir, name, func(w io.Writer) error { return g.Write(w, loc) }); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
