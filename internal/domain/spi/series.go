package spi

import (
	"math"

	"github.com/okian/drought/internal/domain/model"
)

// Lookup returns the fitted parameters for a key, if any.
type Lookup func(key model.Key) (model.GammaParams, bool)

// Series computes the chronological SPI series of one location at the given
// timescale. The value dated at month p is the SPI of the trailing window
// p-T+1..p under the distribution fitted for windows starting in month
// p-T+1. The first T-1 records have no full window and are skipped.
// Windows that span a gap in the record, or whose key has no parameters,
// produce NaN points so the series stays aligned with the calendar.
func Series(records []model.Record, timescale int, lookup Lookup) []model.Point {
	if timescale < 1 || len(records) < timescale {
		return nil
	}

	points := make([]model.Point, 0, len(records)-timescale+1)
	for end := timescale - 1; end < len(records); end++ {
		first := records[end-timescale+1]
		pt := model.Point{
			Index: len(points),
			Date:  records[end].Date(),
			Value: math.NaN(),
		}

		window := records[end-timescale+1 : end+1]
		if contiguous(window) {
			var total float64
			for _, r := range window {
				total += r.Total
			}
			key := model.Key{Location: first.Location, Month: first.Month, Timescale: timescale}
			if p, ok := lookup(key); ok {
				if v, err := Forward(total, p); err == nil {
					pt.Value = v
				}
			}
		}
		points = append(points, pt)
	}
	return points
}

// contiguous reports whether records cover consecutive calendar months.
func contiguous(records []model.Record) bool {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if monthIndex(cur)-monthIndex(prev) != 1 {
			return false
		}
	}
	return true
}

func monthIndex(r model.Record) int {
	return r.Year*12 + int(r.Month) - 1
}
