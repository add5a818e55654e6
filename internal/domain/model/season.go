package model

// Season is a meteorological season.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Fall
)

// Seasons lists seasons in reporting order.
var Seasons = [4]Season{Winter, Spring, Summer, Fall}

func (s Season) String() string {
	switch s {
	case Winter:
		return "Winter"
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Fall:
		return "Fall"
	default:
		return "Unknown"
	}
}

// SeasonOf buckets a month: Dec-Feb winter, Mar-May spring, Jun-Aug summer,
// Sep-Nov fall.
func SeasonOf(m Month) Season {
	switch m {
	case 12, 1, 2:
		return Winter
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	default:
		return Fall
	}
}

// Labels used for the modal season when no single season wins.
const (
	LabelTie        = "Tie"
	LabelWinterOnly = "Winter Only"
)

// Summary is the per-location seasonal breakdown of event dates.
type Summary struct {
	Location     string
	Counts       [4]int
	MostFrequent string
	Onset        OnsetMonths
}

// OnsetMonths describes the calendar months events start in. Mean and
// Median are only meaningful when Events > 0. Modes lists every most
// common month in calendar order.
type OnsetMonths struct {
	Events int
	Mean   float64
	Median float64
	Modes  []Month
}

// Count returns the number of events in season s.
func (s Summary) Count(season Season) int { return s.Counts[season] }

// Total returns the number of events counted across all seasons.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}
