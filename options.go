package servicemap

import (
	"time"

	"github.com/agentstation/servicemap/internal/intent"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
)

// options holds the configuration of a Client.
type options struct {
	primary   federation.Gateway
	secondary federation.Gateway
	fallback  federation.Fallback
	recorder  federation.Recorder
	analyzer  intent.Analyzer

	threshold      float64
	tieBreak       dedup.TieBreak
	gatewayTimeout time.Duration
	defaultLimit   int
}

func defaults() *options {
	return &options{
		analyzer: intent.Heuristic{},
	}
}

// Option is a function that configures a Client.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) coordinatorOptions() []federation.Option {
	var out []federation.Option
	if o.gatewayTimeout > 0 {
		out = append(out, federation.WithGatewayTimeout(o.gatewayTimeout))
	}
	if o.defaultLimit > 0 {
		out = append(out, federation.WithDefaultLimit(o.defaultLimit))
	}
	if o.fallback != nil {
		out = append(out, federation.WithFallback(o.fallback))
	}
	if o.recorder != nil {
		out = append(out, federation.WithRecorder(o.recorder))
	}

	var dd []dedup.Option
	if o.threshold > 0 {
		dd = append(dd, dedup.WithThreshold(o.threshold))
	}
	if o.tieBreak != nil {
		dd = append(dd, dedup.WithTieBreak(o.tieBreak))
	}
	if len(dd) > 0 {
		out = append(out, federation.WithDedupOptions(dd...))
	}
	return out
}

// WithPrimary sets the company catalog gateway.
func WithPrimary(g federation.Gateway) Option {
	return func(o *options) error {
		o.primary = g
		return nil
	}
}

// WithSecondary sets the individual-worker catalog gateway.
func WithSecondary(g federation.Gateway) Option {
	return func(o *options) error {
		o.secondary = g
		return nil
	}
}

// WithFallback sets the seed profiles used when a catalog returns nothing.
func WithFallback(f federation.Fallback) Option {
	return func(o *options) error {
		o.fallback = f
		return nil
	}
}

// WithThreshold sets the duplicate similarity threshold, in (0, 1].
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return errors.NewValidationError("threshold", threshold, "must be in (0, 1]")
		}
		o.threshold = threshold
		return nil
	}
}

// WithTieBreak sets which duplicate survives a merge.
func WithTieBreak(tb dedup.TieBreak) Option {
	return func(o *options) error {
		if tb == nil {
			return errors.NewValidationError("tie_break", nil, "must not be nil")
		}
		o.tieBreak = tb
		return nil
	}
}

// WithGatewayTimeout bounds each catalog query.
func WithGatewayTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("gateway_timeout", d, "must be positive")
		}
		o.gatewayTimeout = d
		return nil
	}
}

// WithDefaultLimit sets the result count used when a search passes limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.NewValidationError("limit", n, "must be positive")
		}
		o.defaultLimit = n
		return nil
	}
}

// WithRecorder sets the observer of gateway calls and searches.
func WithRecorder(r federation.Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// WithAnalyzer sets the intent analyzer used by SearchText.
func WithAnalyzer(a intent.Analyzer) Option {
	return func(o *options) error {
		if a == nil {
			return errors.NewValidationError("analyzer", nil, "must not be nil")
		}
		o.analyzer = a
		return nil
	}
}
