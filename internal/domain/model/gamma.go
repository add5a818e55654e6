package model

// FitLoc is the fixed location used when fitting. It sits just below zero so
// that zero-valued totals stay inside the support.
const FitLoc = -1e-10

// GammaParams holds a fitted two-parameter Gamma distribution.
// Beta is the scale. Loc is recorded for reference only; evaluation treats it as 0.
type GammaParams struct {
	Alpha float64
	Loc   float64
	Beta  float64
}

// FittedParams pairs a key with its fitted distribution.
type FittedParams struct {
	Key    Key
	Params GammaParams
}

// Failure records a per-item error that was skipped by a batch step.
type Failure struct {
	Key    Key
	Stage  string
	Reason string
}

// Stages a Failure can be recorded at.
const (
	StageAccumulate = "accumulate"
	StageFit        = "fit"
	StageRainfall   = "rainfall"
	StageStore      = "store"
	StageLocation   = "location"
)
