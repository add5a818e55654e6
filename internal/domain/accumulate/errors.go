package accumulate

import "errors"

// Sentinel kinds for accumulation errors.
var (
	ErrInvalidTimescale = errors.New("timescale must be at least one month")
)
