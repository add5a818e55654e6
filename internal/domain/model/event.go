package model

import (
	"math"
	"time"
)

// Direction selects which side of a threshold forms an event.
type Direction int

const (
	// Drought events collect values at or below the threshold.
	Drought Direction = iota
	// Wet events collect values at or above the threshold.
	Wet
)

func (d Direction) String() string {
	if d == Wet {
		return "wet"
	}
	return "drought"
}

// Unit is the unit an event duration is reported in.
type Unit int

const (
	// Steps counts series positions between start and end.
	Steps Unit = iota
	// Days counts calendar days between the start and end dates.
	Days
)

func (u Unit) String() string {
	if u == Days {
		return "days"
	}
	return "steps"
}

// Point is one SPI value in a chronological series.
type Point struct {
	Index int
	Date  time.Time
	Value float64
}

// Valid reports whether the point carries a usable value.
func (p Point) Valid() bool { return !math.IsNaN(p.Value) }

// Event is a closed run of points on the event side of a threshold.
// End is the first point after the run.
type Event struct {
	Location   string
	Timescale  int
	Threshold  float64
	Direction  Direction
	StartIndex int
	EndIndex   int
	Start      time.Time
	End        time.Time
	Steps      int
	Days       int
}

// Duration returns the event length in the requested unit.
func (e Event) Duration(u Unit) int {
	if u == Days {
		return e.Days
	}
	return e.Steps
}
