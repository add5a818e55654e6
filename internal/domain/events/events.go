package events

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/drought/internal/domain/model"
)

const hoursPerDay = 24

// Segmenter turns a chronological SPI series into closed events.
type Segmenter struct {
	direction model.Direction
	unit      model.Unit
}

// New creates a drought segmenter reporting durations in steps unless
// options say otherwise.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{direction: model.Drought, unit: model.Steps}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Direction returns the side of the threshold events are built from.
func (s *Segmenter) Direction() model.Direction { return s.direction }

// Unit returns the duration unit used by the statistics helpers.
func (s *Segmenter) Unit() model.Unit { return s.unit }

// satisfies reports whether v is on the event side of th. NaN never is.
func (s *Segmenter) satisfies(v, th float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if s.direction == model.Wet {
		return v >= th
	}
	return v <= th
}

// Segment walks points in order. An event opens at the first satisfying
// point and closes at the first point that does not satisfy; the closing
// point is the event end. A run still open when the series ends is dropped.
func (s *Segmenter) Segment(location string, timescale int, points []model.Point, threshold float64) []model.Event {
	var (
		out    []model.Event
		in     bool
		opened model.Point
	)
	for _, pt := range points {
		ok := s.satisfies(pt.Value, threshold)
		switch {
		case !in && ok:
			in, opened = true, pt
		case in && !ok:
			out = append(out, model.Event{
				Location:   location,
				Timescale:  timescale,
				Threshold:  threshold,
				Direction:  s.direction,
				StartIndex: opened.Index,
				EndIndex:   pt.Index,
				Start:      opened.Date,
				End:        pt.Date,
				Steps:      pt.Index - opened.Index,
				Days:       days(opened.Date, pt.Date),
			})
			in = false
		}
	}
	return out
}

// SegmentAll runs Segment for every threshold in order.
func (s *Segmenter) SegmentAll(location string, timescale int, points []model.Point, thresholds []float64) []model.Event {
	var out []model.Event
	for _, th := range thresholds {
		out = append(out, s.Segment(location, timescale, points, th)...)
	}
	return out
}

// Frequency counts the points on the event side of th.
func (s *Segmenter) Frequency(points []model.Point, th float64) int {
	n := 0
	for _, pt := range points {
		if s.satisfies(pt.Value, th) {
			n++
		}
	}
	return n
}

// Longest returns the largest event duration in the segmenter's unit, or 0.
func (s *Segmenter) Longest(evts []model.Event) int {
	if len(evts) == 0 {
		return 0
	}
	return int(floats.Max(durations(evts, s.unit)))
}

// Shortest returns the smallest event duration in the segmenter's unit, or 0.
func (s *Segmenter) Shortest(evts []model.Event) int {
	if len(evts) == 0 {
		return 0
	}
	return int(floats.Min(durations(evts, s.unit)))
}

// CumulativePercent is the summed duration of evts as a percentage of an
// observation window of the given length, less the timescale warm-up.
func (s *Segmenter) CumulativePercent(evts []model.Event, observation, timescale int) (float64, error) {
	window := observation - (timescale - 1)
	if window <= 0 {
		return 0, fmt.Errorf("observation=%d timescale=%d: %w", observation, timescale, ErrNoObservations)
	}
	if len(evts) == 0 {
		return 0, nil
	}
	total := floats.Sum(durations(evts, s.unit))
	if s.unit == model.Days {
		// observation is in months.
		return total / (float64(window) * 365.25 / 12) * 100, nil
	}
	return total / float64(window) * 100, nil
}

// Stats are the per-(location, timescale, threshold) duration figures.
type Stats struct {
	Location   string
	Timescale  int
	Threshold  float64
	Frequency  int
	Events     int
	Longest    int
	Shortest   int
	Cumulative float64
}

// Summarize computes Stats for one threshold of one series.
func (s *Segmenter) Summarize(location string, timescale int, points []model.Point, threshold float64, observation int) (Stats, error) {
	evts := s.Segment(location, timescale, points, threshold)
	cum, err := s.CumulativePercent(evts, observation, timescale)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Location:   location,
		Timescale:  timescale,
		Threshold:  threshold,
		Frequency:  s.Frequency(points, threshold),
		Events:     len(evts),
		Longest:    s.Longest(evts),
		Shortest:   s.Shortest(evts),
		Cumulative: cum,
	}, nil
}

func durations(evts []model.Event, u model.Unit) []float64 {
	out := make([]float64, len(evts))
	for i, e := range evts {
		out[i] = float64(e.Duration(u))
	}
	return out
}

func days(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}
	return int(to.Sub(from).Hours() / hoursPerDay)
}
