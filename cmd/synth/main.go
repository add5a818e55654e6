// Command synth writes synthetic monthly precipitation files that the
// drought batch can read.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/okian/drought/internal/synth"
	"github.com/okian/drought/pkg/logger"
)

// CLI is the synth command line.
type CLI struct {
	Out         string   `help:"Directory to write *_totals.csv files to." default:"data" type:"path"`
	Years       int      `help:"Number of years per location." default:"30"`
	Start       int      `help:"First year." default:"1991"`
	Alpha       float64  `help:"Gamma shape of an average month." default:"2.0"`
	Scale       float64  `help:"Gamma scale of an average month." default:"1.5"`
	Seasonality float64  `help:"Relative amplitude of the annual cycle (0-0.95)." default:"0.3"`
	Seed        uint64   `help:"Random seed." default:"1"`
	Locations   []string `arg:"" optional:"" sep:"none" help:"Location names." default:"Albany, Gentry County, MO"`
}

// Run generates the files.
func (c *CLI) Run(log logger.Logger) error {
	g := synth.New(
		synth.WithShape(c.Alpha, c.Scale),
		synth.WithSeasonality(c.Seasonality),
		synth.WithPeriod(c.Start, c.Years),
		synth.WithSeed(c.Seed),
	)
	names, err := g.WriteDir(c.Out, c.Locations)
	if err != nil {
		return err
	}
	for _, n := range names {
		log.Info(context.Background(), "wrote totals", logger.String("dir", c.Out), logger.String("file", n))
	}
	return nil
}

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("synth"),
		kong.Description("Generate synthetic monthly precipitation totals."),
		kong.UsageOnError(),
		kong.BindTo(logger.Named("synth"), (*logger.Logger)(nil)),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
