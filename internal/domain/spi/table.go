package spi

import (
	"fmt"
	"math"

	"github.com/okian/drought/internal/domain/model"
)

// SeverityLevels are the SPI values reported in rainfall conversion tables.
var SeverityLevels = []float64{-2.0, -1.6, -1.3, -0.8, -0.5, 0.5, 0.8, 1.3, 1.6, 2.0}

// Classify names the severity category an SPI value falls in.
func Classify(v float64) string {
	switch {
	case math.IsNaN(v):
		return "Unknown"
	case v <= -2.0:
		return "Exceptional Drought"
	case v <= -1.6:
		return "Extreme Drought"
	case v <= -1.3:
		return "Severe Drought"
	case v <= -0.8:
		return "Moderate Drought"
	case v <= -0.5:
		return "Abnormally Dry"
	case v < 0.5:
		return "Near Normal"
	case v < 0.8:
		return "Abnormally Wet"
	case v < 1.3:
		return "Moderate Wet"
	case v < 1.6:
		return "Severe Wet"
	case v < 2.0:
		return "Extreme Wet"
	default:
		return "Exceptional Wet"
	}
}

// RainfallRow is one line of an SPI-to-rainfall conversion table.
type RainfallRow struct {
	Key      model.Key
	SPI      float64
	Rainfall float64
	Category string
}

// RainfallTable converts each SPI value to the equivalent accumulation under p.
func RainfallTable(key model.Key, p model.GammaParams, values []float64) ([]RainfallRow, error) {
	rows := make([]RainfallRow, 0, len(values))
	for _, v := range values {
		amount, err := Inverse(v, p)
		if err != nil {
			return nil, fmt.Errorf("rainfall table %s: %w", key, err)
		}
		rows = append(rows, RainfallRow{Key: key, SPI: v, Rainfall: amount, Category: Classify(v)})
	}
	return rows, nil
}

// Thresholds returns the ladder start, start±step, ... ending at stop
// inclusive. Values are snapped to six decimals so repeated steps of 0.1 do
// not drift.
func Thresholds(start, stop, step float64) ([]float64, error) {
	if !(step > 0) || math.IsNaN(start) || math.IsNaN(stop) {
		return nil, fmt.Errorf("start=%v stop=%v step=%v: %w", start, stop, step, ErrInvalidThresholds)
	}
	dir := 1.0
	if stop < start {
		dir = -1
	}
	n := int(math.Round(math.Abs(stop-start) / step))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := start + dir*float64(i)*step
		out = append(out, math.Round(v*1e6)/1e6)
	}
	return out, nil
}
