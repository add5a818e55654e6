package synth_test

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/drought/internal/adapters/tabular"
	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator_Records(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		g := synth.New(synth.WithPeriod(2000, 40), synth.WithSeed(7))

		Convey("When a history is generated", func() {
			recs := g.Records("Albany")

			Convey("Then it is chronological and complete", func() {
				So(recs, ShouldHaveLength, 480)
				So(recs[0].Year, ShouldEqual, 2000)
				So(recs[0].Month, ShouldEqual, model.Month(1))
				So(recs[479].Year, ShouldEqual, 2039)
				So(recs[479].Month, ShouldEqual, model.Month(12))
				for _, r := range recs {
					So(r.Total, ShouldBeGreaterThanOrEqualTo, 0)
					So(r.Location, ShouldEqual, "Albany")
				}
			})

			Convey("And the same seed reproduces it", func() {
				So(g.Records("Albany"), ShouldResemble, recs)
			})

			Convey("And another location gets a different history", func() {
				So(g.Records("Bethany"), ShouldNotResemble, recs)
			})

			Convey("And the mean is near alpha times scale", func() {
				totals := make([]float64, len(recs))
				for i, r := range recs {
					totals[i] = r.Total
				}
				So(stat.Mean(totals, nil), ShouldAlmostEqual, 3.0, 0.5)
			})
		})
	})

	Convey("Given a strong annual cycle", t, func() {
		g := synth.New(synth.WithSeasonality(0.5))

		Convey("Then January is the wettest month and July the driest", func() {
			So(g.MonthScale(1), ShouldAlmostEqual, 2.25, 1e-12)
			So(g.MonthScale(7), ShouldAlmostEqual, 0.75, 1e-12)
		})
	})

	Convey("Given an out of range amplitude", t, func() {
		g := synth.New(synth.WithSeasonality(3))
		So(g.MonthScale(7), ShouldBeGreaterThan, 0)
	})
}

func TestGenerator_WriteDir(t *testing.T) {
	Convey("Given a generator writing two locations", t, func() {
		dir := t.TempDir()
		g := synth.New(synth.WithPeriod(1991, 5))

		names, err := g.WriteDir(dir, []string{"Albany, MO", "Bethany"})

		Convey("Then the files read back as the same records", func() {
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"Albany,_MO_totals.csv", "Bethany_totals.csv"})

			recs, err := tabular.ReadTotalsFile(filepath.Join(dir, names[0]))
			So(err, ShouldBeNil)
			So(recs, ShouldResemble, g.Records("Albany, MO"))
		})
	})
}
