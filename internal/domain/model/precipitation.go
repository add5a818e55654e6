// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Month is a calendar month, January = 1.
type Month time.Month

// Months lists the calendar in order.
var Months = [12]Month{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// ParseMonth accepts an English month name (case-insensitive), its
// three-letter abbreviation, or a number 1..12.
func ParseMonth(name string) (Month, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if num, err := strconv.Atoi(n); err == nil {
		if m := Month(num); m.Valid() {
			return m, nil
		}
		return 0, fmt.Errorf("month %d out of range", num)
	}
	for _, m := range Months {
		full := strings.ToLower(time.Month(m).String())
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}

// Add returns the month n steps later, wrapping across year ends.
func (m Month) Add(n int) Month {
	idx := (int(m) - 1 + n) % 12
	if idx < 0 {
		idx += 12
	}
	return Month(idx + 1)
}

// Valid reports whether m is within 1..12.
func (m Month) Valid() bool { return m >= 1 && m <= 12 }

func (m Month) String() string { return time.Month(m).String() }

// Record is one monthly precipitation total for a location.
type Record struct {
	Location string
	Year     int
	Month    Month
	Total    float64
}

// Date returns the first day of the record's month in UTC.
func (r Record) Date() time.Time {
	return time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
}

// PrecipitationSeries maps location -> month -> totals ordered by year.
// Months of one location may carry a different number of samples.
type PrecipitationSeries map[string]map[Month][]float64

// BuildSeries groups records by location and month, keeping each month's
// totals in chronological order.
func BuildSeries(records []Record) PrecipitationSeries {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	out := make(PrecipitationSeries)
	for _, r := range sorted {
		months, ok := out[r.Location]
		if !ok {
			months = make(map[Month][]float64)
			out[r.Location] = months
		}
		months[r.Month] = append(months[r.Month], r.Total)
	}
	return out
}

// Locations returns the series' locations in lexical order.
func (s PrecipitationSeries) Locations() []string {
	locs := make([]string, 0, len(s))
	for loc := range s {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

// SortRecords orders records by location, then chronologically.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
}

// GroupRecords splits records by location, each slice sorted chronologically.
func GroupRecords(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.Location] = append(out[r.Location], r)
	}
	for _, rs := range out {
		SortRecords(rs)
	}
	return out
}

// Key identifies one accumulation series: a location, the month the window
// starts in, and the window length in months.
type Key struct {
	Location  string
	Month     Month
	Timescale int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%dM", k.Location, k.Month, k.Timescale)
}

// AccumulationSeries maps a key to its summed totals.
type AccumulationSeries map[Key][]float64

// Keys returns the keys sorted by timescale, location, then month.
func (a AccumulationSeries) Keys() []Key {
	keys := make([]Key, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by timescale, location, then month.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return KeyLess(keys[i], keys[j]) })
}

// KeyLess reports whether a sorts before b in SortKeys order.
func KeyLess(a, b Key) bool {
	if a.Timescale != b.Timescale {
		return a.Timescale < b.Timescale
	}
	if a.Location != b.Location {
		return a.Location < b.Location
	}
	return a.Month < b.Month
}
