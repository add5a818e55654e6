package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/events"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/spi"
)

// DateLayout is used for every month-resolution date column.
const DateLayout = "2006-01"

// Standard output file names.
const (
	ParamsFile      = "gamma_params.csv"
	EventsFile      = "events.csv"
	StatsFile       = "duration_stats.csv"
	SeasonalityFile = "seasonality.csv"
	RainfallFile    = "rainfall_table.csv"
	SeriesFile      = "spi_series.csv"
	FailuresFile    = "failures.csv"
	ManifestFile    = "manifest.csv"
)

// SeriesRow is one SPI point tagged with its series.
type SeriesRow struct {
	Location  string
	Timescale int
	Point     model.Point
}

// Manifest describes one batch run.
type Manifest struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Locations   int
	Params      int
	Reused      int
	Evaluations int
	Events      int
	Failures    int
	Unit        model.Unit
}

func ftoa(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func month(m model.Month) string {
	if !m.Valid() {
		return ""
	}
	return m.String()
}

// table writes a header followed by rows and flushes.
func table(w io.Writer, head []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(head); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTotals writes records as a Year,Month,Total table.
func WriteTotals(w io.Writer, recs []model.Record) error {
	return table(w, []string{"Year", "Month", "Total"}, len(recs), func(i int) []string {
		r := recs[i]
		return []string{strconv.Itoa(r.Year), month(r.Month), ftoa(r.Total)}
	})
}

// WriteParams writes fitted parameters, readable by ReadParams.
func WriteParams(w io.Writer, params []model.FittedParams) error {
	return table(w, []string{"location", "month", "timescale", "alpha", "loc", "beta"}, len(params), func(i int) []string {
		p := params[i]
		return []string{
			p.Key.Location, month(p.Key.Month), strconv.Itoa(p.Key.Timescale),
			ftoa(p.Params.Alpha), ftoa(p.Params.Loc), ftoa(p.Params.Beta),
		}
	})
}

// WriteEvents writes events with durations in unit u.
func WriteEvents(w io.Writer, evts []model.Event, u model.Unit) error {
	head := []string{"location", "timescale", "threshold", "direction", "start", "end", "duration_" + u.String()}
	return table(w, head, len(evts), func(i int) []string {
		e := evts[i]
		return []string{
			e.Location, strconv.Itoa(e.Timescale), ftoa(e.Threshold), e.Direction.String(),
			date(e.Start), date(e.End), strconv.Itoa(e.Duration(u)),
		}
	})
}

// WriteStats writes per-threshold duration statistics.
func WriteStats(w io.Writer, stats []events.Stats) error {
	head := []string{"location", "timescale", "threshold", "frequency", "events", "longest", "shortest", "cumulative_percent"}
	return table(w, head, len(stats), func(i int) []string {
		s := stats[i]
		return []string{
			s.Location, strconv.Itoa(s.Timescale), ftoa(s.Threshold),
			strconv.Itoa(s.Frequency), strconv.Itoa(s.Events),
			strconv.Itoa(s.Longest), strconv.Itoa(s.Shortest),
			strconv.FormatFloat(s.Cumulative, 'f', 4, 64),
		}
	})
}

// WriteSeasonality writes one row per seasonal summary.
func WriteSeasonality(w io.Writer, rows []analysis.SeasonRow) error {
	head := []string{"location", "timescale", "threshold"}
	for _, s := range model.Seasons {
		head = append(head, s.String())
	}
	head = append(head, "most_frequent", "mean_onset_month", "median_onset_month", "mode_onset_month")
	return table(w, head, len(rows), func(i int) []string {
		r := rows[i]
		out := []string{r.Summary.Location, strconv.Itoa(r.Timescale), ftoa(r.Threshold)}
		for _, s := range model.Seasons {
			out = append(out, strconv.Itoa(r.Summary.Count(s)))
		}
		out = append(out, r.Summary.MostFrequent)
		return append(out, onset(r.Summary.Onset)...)
	})
}

// onset renders onset-month statistics; modes are joined with ";".
func onset(o model.OnsetMonths) []string {
	if o.Events == 0 {
		return []string{"", "", ""}
	}
	modes := make([]string, len(o.Modes))
	for i, m := range o.Modes {
		modes[i] = month(m)
	}
	return []string{
		strconv.FormatFloat(o.Mean, 'f', 2, 64),
		strconv.FormatFloat(o.Median, 'f', 1, 64),
		strings.Join(modes, ";"),
	}
}

// WriteRainfall writes SPI-to-rainfall conversion rows.
func WriteRainfall(w io.Writer, rows []spi.RainfallRow) error {
	head := []string{"location", "month", "timescale", "spi", "category", "rainfall"}
	return table(w, head, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Key.Location, month(r.Key.Month), strconv.Itoa(r.Key.Timescale),
			ftoa(r.SPI), r.Category, strconv.FormatFloat(r.Rainfall, 'f', 2, 64),
		}
	})
}

// WriteSeries writes SPI points. Missing values are left blank.
func WriteSeries(w io.Writer, rows []SeriesRow) error {
	return table(w, []string{"location", "timescale", "date", "spi"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{r.Location, strconv.Itoa(r.Timescale), date(r.Point.Date), ftoa(r.Point.Value)}
	})
}

// WriteFailures writes skipped items.
func WriteFailures(w io.Writer, fails []model.Failure) error {
	return table(w, []string{"location", "month", "timescale", "stage", "reason"}, len(fails), func(i int) []string {
		f := fails[i]
		ts := ""
		if f.Key.Timescale > 0 {
			ts = strconv.Itoa(f.Key.Timescale)
		}
		return []string{f.Key.Location, month(f.Key.Month), ts, f.Stage, f.Reason}
	})
}

// WriteManifest writes a single-row run summary.
func WriteManifest(w io.Writer, m Manifest) error {
	head := []string{"run_id", "started", "finished", "locations", "params", "reused", "evaluations", "events", "failures", "unit"}
	return table(w, head, 1, func(int) []string {
		return []string{
			m.RunID, m.Started.UTC().Format(time.RFC3339), m.Finished.UTC().Format(time.RFC3339),
			strconv.Itoa(m.Locations), strconv.Itoa(m.Params), strconv.Itoa(m.Reused),
			strconv.Itoa(m.Evaluations), strconv.Itoa(m.Events), strconv.Itoa(m.Failures),
			m.Unit.String(),
		}
	})
}

// WriteFile creates dir/name and passes it to fn.
func WriteFile(dir, name string, fn func(io.Writer) error) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
