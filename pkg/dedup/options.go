package dedup

import (
	"github.com/agentstation/servicemap/pkg/errors"
)

// DefaultThreshold is the similarity at which two names are treated as the same provider.
const DefaultThreshold = 0.80

// SameOriginThreshold is the stricter threshold for duplicates inside one catalog.
const SameOriginThreshold = 0.90

// Scope selects which pairs are compared.
type Scope int

const (
	// ScopeCrossOrigin compares only records from different catalogs.
	ScopeCrossOrigin Scope = iota
	// ScopeSameOrigin compares only records from the same catalog.
	ScopeSameOrigin
)

// options configures a Resolver.
type options struct {
	threshold float64
	tieBreak  TieBreak
	scope     Scope
}

func defaultOptions() *options {
	return &options{
		threshold: DefaultThreshold,
		tieBreak:  HighestRated(),
		scope:     ScopeCrossOrigin,
	}
}

// Option is a function that configures a Resolver.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithThreshold sets the minimum similarity for a duplicate. It must lie in (0, 1].
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return &errors.ValidationError{
				Field:   "threshold",
				Value:   threshold,
				Message: "must be within (0, 1]",
			}
		}
		o.threshold = threshold
		return nil
	}
}

// WithTieBreak sets the policy that picks the surviving record.
func WithTieBreak(tb TieBreak) Option {
	return func(o *options) error {
		if tb == nil {
			return &errors.ValidationError{
				Field:   "tie_break",
				Message: "cannot be nil",
			}
		}
		o.tieBreak = tb
		return nil
	}
}

// WithScope selects cross-origin or same-origin comparison. Same-origin
// comparison is meant for offline audits, not live search.
func WithScope(scope Scope) Option {
	return func(o *options) error {
		if scope != ScopeCrossOrigin && scope != ScopeSameOrigin {
			return &errors.ValidationError{
				Field:   "scope",
				Value:   scope,
				Message: "unknown scope",
			}
		}
		o.scope = scope
		return nil
	}
}
