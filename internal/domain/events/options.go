// Package events segments SPI series into threshold-crossing events.
package events

import "github.com/okian/drought/internal/domain/model"

// Option applies a configuration option to the Segmenter.
type Option func(*Segmenter)

// WithDirection selects drought (v <= th) or wet (v >= th) segmentation.
func WithDirection(d model.Direction) Option {
	return func(s *Segmenter) {
		s.direction = d
	}
}

// WithUnit sets the unit used by the statistics helpers.
func WithUnit(u model.Unit) Option {
	return func(s *Segmenter) {
		s.unit = u
	}
}
