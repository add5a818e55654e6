// Package season buckets event dates into meteorological seasons and picks
// the modal season per location.
package season

// Anchor selects which event date is bucketed.
type Anchor int

const (
	// Onset buckets the event start date.
	Onset Anchor = iota
	// Relief buckets the event end date.
	Relief
)

func (a Anchor) String() string {
	if a == Relief {
		return "relief"
	}
	return "onset"
}

// Policy controls how the modal season is chosen.
type Policy struct {
	Anchor        Anchor
	ExcludeWinter bool
}

// OnsetPolicy buckets start dates and lets winter contend.
func OnsetPolicy() Policy { return Policy{Anchor: Onset} }

// ReliefPolicy buckets end dates and keeps winter out of the contest.
func ReliefPolicy() Policy { return Policy{Anchor: Relief, ExcludeWinter: true} }

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPolicy replaces the aggregation policy.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) {
		a.policy = p
	}
}
