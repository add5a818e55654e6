package analysis

import "errors"

// Sentinel kinds for location analysis errors.
var (
	ErrEmptyJob      = errors.New("job has no records")
	ErrMixedLocation = errors.New("job records span several locations")
)
