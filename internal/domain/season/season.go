package season

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/drought/internal/domain/model"
)

// Aggregator produces seasonal summaries of events.
type Aggregator struct {
	policy Policy
}

// New creates an Aggregator using the relief policy unless overridden.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{policy: ReliefPolicy()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the active policy.
func (a *Aggregator) Policy() Policy { return a.policy }

// Summarize counts the anchor date of every event by season and names the
// most frequent one.
func (a *Aggregator) Summarize(location string, evts []model.Event) model.Summary {
	sum := model.Summary{Location: location}
	for _, e := range evts {
		d := e.Start
		if a.policy.Anchor == Relief {
			d = e.End
		}
		sum.Counts[model.SeasonOf(model.Month(d.Month()))]++
	}
	sum.MostFrequent = a.mode(sum.Counts)
	sum.Onset = OnsetStats(evts)
	return sum
}

// OnsetStats summarises the start months of evts. The median of an even
// count averages the two middle months.
func OnsetStats(evts []model.Event) model.OnsetMonths {
	out := model.OnsetMonths{Events: len(evts)}
	if len(evts) == 0 {
		return out
	}

	months := make([]float64, len(evts))
	var counts [13]int
	for i, e := range evts {
		m := int(e.Start.Month())
		months[i] = float64(m)
		counts[m]++
	}
	sort.Float64s(months)
	out.Mean = stat.Mean(months, nil)
	mid := len(months) / 2
	out.Median = months[mid]
	if len(months)%2 == 0 {
		out.Median = (months[mid-1] + months[mid]) / 2
	}

	top := 0
	for _, c := range counts {
		top = max(top, c)
	}
	for m := 1; m <= 12; m++ {
		if counts[m] == top {
			out.Modes = append(out.Modes, model.Month(m))
		}
	}
	return out
}

// SummarizeAll groups events by location and summarizes each, ordered by
// location name.
func (a *Aggregator) SummarizeAll(evts []model.Event) []model.Summary {
	byLoc := make(map[string][]model.Event)
	for _, e := range evts {
		byLoc[e.Location] = append(byLoc[e.Location], e)
	}
	locs := make([]string, 0, len(byLoc))
	for l := range byLoc {
		locs = append(locs, l)
	}
	sort.Strings(locs)

	out := make([]model.Summary, 0, len(locs))
	for _, l := range locs {
		out = append(out, a.Summarize(l, byLoc[l]))
	}
	return out
}

func (a *Aggregator) mode(counts [4]int) string {
	contenders := model.Seasons[:]
	if a.policy.ExcludeWinter {
		contenders = []model.Season{model.Spring, model.Summer, model.Fall}
	}

	best, ties := contenders[0], 0
	for _, s := range contenders {
		switch {
		case counts[s] > counts[best]:
			best, ties = s, 1
		case counts[s] == counts[best]:
			ties++
		}
	}

	switch {
	case counts[best] == 0 && a.policy.ExcludeWinter:
		return model.LabelWinterOnly
	case counts[best] == 0:
		return ""
	case ties > 1:
		return model.LabelTie
	}
	return best.String()
}
