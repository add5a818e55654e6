package tabular

import "errors"

// Sentinel kinds for table errors.
var (
	ErrMalformed     = errors.New("malformed table")
	ErrMissingColumn = errors.New("missing column")
)
