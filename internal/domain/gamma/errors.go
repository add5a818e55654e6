package gamma

import "errors"

// Sentinel kinds for fitting errors.
var (
	ErrInsufficientData = errors.New("insufficient data for gamma fit")
	ErrFitDivergence    = errors.New("gamma fit did not converge")
	ErrNegativeSample   = errors.New("negative precipitation sample")
)
