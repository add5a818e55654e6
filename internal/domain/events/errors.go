package events

import "errors"

// Sentinel kinds for event statistics errors.
var (
	ErrNoObservations = errors.New("observation window must be positive")
)
