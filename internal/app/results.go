package service

import (
	"io"
	"sort"
	"time"

	"github.com/okian/drought/internal/adapters/tabular"
	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/events"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/spi"
)

// Results is the outcome of one batch run. Reports are ordered by location.
type Results struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Unit     model.Unit
	Reports  []*analysis.Report

	// locationFailures are jobs that failed as a whole.
	locationFailures []model.Failure
}

// Params returns every fitted or reused parameter set.
func (r *Results) Params() []model.FittedParams {
	var out []model.FittedParams
	for _, rep := range r.Reports {
		out = append(out, rep.Params...)
	}
	sort.SliceStable(out, func(i, j int) bool { return model.KeyLess(out[i].Key, out[j].Key) })
	return out
}

// Reused counts parameter sets taken from the store instead of fitted.
func (r *Results) Reused() int {
	n := 0
	for _, rep := range r.Reports {
		n += rep.Reused
	}
	return n
}

// Events returns all closed events in report order.
func (r *Results) Events() []model.Event {
	var out []model.Event
	for _, rep := range r.Reports {
		out = append(out, rep.Events...)
	}
	return out
}

// Stats returns per-threshold duration statistics.
func (r *Results) Stats() []events.Stats {
	var out []events.Stats
	for _, rep := range r.Reports {
		out = append(out, rep.Stats...)
	}
	return out
}

// Seasons returns the seasonal summaries.
func (r *Results) Seasons() []analysis.SeasonRow {
	var out []analysis.SeasonRow
	for _, rep := range r.Reports {
		out = append(out, rep.Seasons...)
	}
	return out
}

// Rainfall returns the SPI-to-rainfall conversion rows.
func (r *Results) Rainfall() []spi.RainfallRow {
	var out []spi.RainfallRow
	for _, rep := range r.Reports {
		out = append(out, rep.Rainfall...)
	}
	return out
}

// Series flattens the chronological SPI series, timescales ascending.
func (r *Results) Series() []tabular.SeriesRow {
	var out []tabular.SeriesRow
	for _, rep := range r.Reports {
		ts := make([]int, 0, len(rep.Series))
		for t := range rep.Series {
			ts = append(ts, t)
		}
		sort.Ints(ts)
		for _, t := range ts {
			for _, p := range rep.Series[t] {
				out = append(out, tabular.SeriesRow{Location: rep.Location, Timescale: t, Point: p})
			}
		}
	}
	return out
}

// Failures returns failed locations followed by per-key failures.
func (r *Results) Failures() []model.Failure {
	out := append([]model.Failure(nil), r.locationFailures...)
	for _, rep := range r.Reports {
		out = append(out, rep.Failures...)
	}
	return out
}

// Evaluations counts valid SPI values across all reports.
func (r *Results) Evaluations() int {
	n := 0
	for _, rep := range r.Reports {
		n += rep.Evaluations()
	}
	return n
}

// Manifest summarises the run.
func (r *Results) Manifest() tabular.Manifest {
	return tabular.Manifest{
		RunID:       r.RunID,
		Started:     r.Started,
		Finished:    r.Finished,
		Locations:   len(r.Reports),
		Params:      len(r.Params()),
		Reused:      r.Reused(),
		Evaluations: r.Evaluations(),
		Events:      len(r.Events()),
		Failures:    len(r.Failures()),
		Unit:        r.Unit,
	}
}

// Write stores every result table under dir.
func (r *Results) Write(dir string) error {
	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{tabular.ParamsFile, func(w io.Writer) error { return tabular.WriteParams(w, r.Params()) }},
		{tabular.EventsFile, func(w io.Writer) error { return tabular.WriteEvents(w, r.Events(), r.Unit) }},
		{tabular.StatsFile, func(w io.Writer) error { return tabular.WriteStats(w, r.Stats()) }},
		{tabular.SeasonalityFile, func(w io.Writer) error { return tabular.WriteSeasonality(w, r.Seasons()) }},
		{tabular.RainfallFile, func(w io.Writer) error { return tabular.WriteRainfall(w, r.Rainfall()) }},
		{tabular.SeriesFile, func(w io.Writer) error { return tabular.WriteSeries(w, r.Series()) }},
		{tabular.FailuresFile, func(w io.Writer) error { return tabular.WriteFailures(w, r.Failures()) }},
		{tabular.ManifestFile, func(w io.Writer) error { return tabular.WriteManifest(w, r.Manifest()) }},
	}
	for _, t := range tables {
		if err := tabular.WriteFile(dir, t.name, t.write); err != nil {
			return err
		}
	}
	return nil
}
