package tabular_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/drought/internal/adapters/tabular"
	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func readAll(t *testing.T, b *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(b).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return rows
}

func TestReadTotals(t *testing.T) {
	Convey("Given a totals table with named and numbered months", t, func() {
		in := "Year,Month,Total\n1990,January,2.5\n1990,2,1.25\n1990,Mar,\n1990,April,0\n"
		recs, err := tabular.ReadTotals(strings.NewReader(in), "Albany")

		Convey("Then blank totals are skipped and months are parsed", func() {
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 3)
			So(recs[0], ShouldResemble, model.Record{Location: "Albany", Year: 1990, Month: 1, Total: 2.5})
			So(recs[1].Month, ShouldEqual, model.Month(2))
			So(recs[2].Month, ShouldEqual, model.Month(4))
		})
	})

	Convey("Given malformed tables", t, func() {
		cases := []string{
			"",
			"Year,Total\n1990,1\n",
			"Year,Month,Total\nabc,1,1\n",
			"Year,Month,Total\n1990,13,1\n",
			"Year,Month,Total\n1990,Smarch,1\n",
			"Year,Month,Total\n1990,1,lots\n",
		}

		Convey("Then each is rejected with a table error", func() {
			for _, in := range cases {
				_, err := tabular.ReadTotals(strings.NewReader(in), "X")
				So(err, ShouldNotBeNil)
				So(errors.Is(err, tabular.ErrMalformed) || errors.Is(err, tabular.ErrMissingColumn), ShouldBeTrue)
			}
		})
	})
}

func TestFilenames(t *testing.T) {
	Convey("Given a location with spaces", t, func() {
		name := tabular.FilenameForLocation("Albany, Gentry County, MO")

		So(name, ShouldEqual, "Albany,_Gentry_County,_MO_totals.csv")
		So(tabular.LocationFromFilename("/data/"+name), ShouldEqual, "Albany, Gentry County, MO")
	})
}

func TestReadTotalsDir(t *testing.T) {
	Convey("Given a directory with two totals files and an unrelated file", t, func() {
		dir := t.TempDir()
		write := func(name, body string) {
			So(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644), ShouldBeNil)
		}
		write("B_Town_totals.csv", "Year,Month,Total\n2000,1,1\n")
		write("A_Town_totals.csv", "Year,Month,Total\n2000,1,2\n2000,2,3\n")
		write("notes.csv", "junk")

		recs, err := tabular.ReadTotalsDir(dir)

		Convey("Then records from both files are read in file order", func() {
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 3)
			So(recs[0].Location, ShouldEqual, "A Town")
			So(recs[2].Location, ShouldEqual, "B Town")
		})
	})
}

func TestParamsRoundTrip(t *testing.T) {
	Convey("Given fitted parameters written to a table", t, func() {
		in := []model.FittedParams{
			{Key: model.Key{Location: "A, B", Month: 3, Timescale: 6}, Params: model.GammaParams{Alpha: 2.25, Loc: model.FitLoc, Beta: 0.5}},
			{Key: model.Key{Location: "C", Month: 12, Timescale: 1}, Params: model.GammaParams{Alpha: 0.75, Loc: model.FitLoc, Beta: 4}},
		}
		var buf bytes.Buffer
		So(tabular.WriteParams(&buf, in), ShouldBeNil)

		Convey("Then reading it back yields the same parameters", func() {
			out, err := tabular.ReadParams(&buf)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, in)
		})
	})
}

func TestWriteEvents(t *testing.T) {
	Convey("Given one drought event", t, func() {
		start := time.Date(2001, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)
		evts := []model.Event{{
			Location: "A", Timescale: 3, Threshold: -1, Direction: model.Drought,
			Start: start, End: end, Steps: 3, Days: 92,
		}}

		Convey("When durations are in days", func() {
			var buf bytes.Buffer
			So(tabular.WriteEvents(&buf, evts, model.Days), ShouldBeNil)
			rows := readAll(t, &buf)

			So(rows, ShouldHaveLength, 2)
			So(rows[0][6], ShouldEqual, "duration_days")
			So(rows[1], ShouldResemble, []string{"A", "3", "-1", "drought", "2001-03", "2001-06", "92"})
		})
	})
}

func TestWriteSeries(t *testing.T) {
	Convey("Given a series with a missing value", t, func() {
		d := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := []tabular.SeriesRow{
			{Location: "A", Timescale: 1, Point: model.Point{Date: d, Value: -0.5}},
			{Location: "A", Timescale: 1, Point: model.Point{Index: 1, Date: d.AddDate(0, 1, 0), Value: math.NaN()}},
		}
		var buf bytes.Buffer
		So(tabular.WriteSeries(&buf, rows), ShouldBeNil)
		out := readAll(t, &buf)

		So(out[1][3], ShouldEqual, "-0.5")
		So(out[2][2], ShouldEqual, "1990-02")
		So(out[2][3], ShouldEqual, "")
	})
}

func TestWriteSeasonality(t *testing.T) {
	Convey("Given a seasonal summary", t, func() {
		rows := []analysis.SeasonRow{{
			Timescale: 3, Threshold: -1.5,
			Summary: model.Summary{
				Location: "A", Counts: [4]int{0, 2, 1, 2}, MostFrequent: model.LabelTie,
				Onset: model.OnsetMonths{Events: 5, Mean: 6.4, Median: 5.5, Modes: []model.Month{3, 10}},
			},
		}, {
			Timescale: 3, Threshold: -2,
			Summary: model.Summary{Location: "A", MostFrequent: model.LabelWinterOnly},
		}}
		var buf bytes.Buffer
		So(tabular.WriteSeasonality(&buf, rows), ShouldBeNil)
		out := readAll(t, &buf)

		So(out[0], ShouldResemble, []string{
			"location", "timescale", "threshold", "Winter", "Spring", "Summer", "Fall", "most_frequent",
			"mean_onset_month", "median_onset_month", "mode_onset_month",
		})
		So(out[1], ShouldResemble, []string{"A", "3", "-1.5", "0", "2", "1", "2", "Tie", "6.40", "5.5", "March;October"})
		So(out[2], ShouldResemble, []string{"A", "3", "-2", "0", "0", "0", "0", "Winter Only", "", "", ""})
	})
}

func TestWriteFailuresAndManifest(t *testing.T) {
	Convey("Given a location-level failure without a month", t, func() {
		var buf bytes.Buffer
		fails := []model.Failure{{Key: model.Key{Location: "A"}, Stage: model.StageLocation, Reason: "empty"}}
		So(tabular.WriteFailures(&buf, fails), ShouldBeNil)
		out := readAll(t, &buf)
		So(out[1], ShouldResemble, []string{"A", "", "", "location", "empty"})
	})

	Convey("Given a run manifest written to a directory", t, func() {
		dir := filepath.Join(t.TempDir(), "out")
		m := tabular.Manifest{RunID: "r1", Locations: 2, Params: 24, Unit: model.Steps}
		err := tabular.WriteFile(dir, tabular.ManifestFile, func(w io.Writer) error {
			return tabular.WriteManifest(w, m)
		})
		So(err, ShouldBeNil)

		body, err := os.ReadFile(filepath.Join(dir, tabular.ManifestFile))
		So(err, ShouldBeNil)
		So(string(body), ShouldContainSubstring, "r1,")
		So(string(body), ShouldContainSubstring, ",steps")
	})
}
