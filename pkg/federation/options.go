package federation

import (
	"time"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
)

// Defaults for a Coordinator.
const (
	DefaultGatewayTimeout = 5 * time.Second
	DefaultLimit          = 20
	FallbackSize          = 5
)

// options configures a Coordinator.
type options struct {
	timeout  time.Duration
	limit    int
	fallback Fallback
	recorder Recorder
	dedup    []dedup.Option
}

func defaultOptions() *options {
	return &options{
		timeout:  DefaultGatewayTimeout,
		limit:    DefaultLimit,
		recorder: nopRecorder{},
	}
}

// Option is a function that configures a Coordinator.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithGatewayTimeout bounds each catalog query.
func WithGatewayTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("gateway_timeout", d, "must be positive")
		}
		o.timeout = d
		return nil
	}
}

// WithDefaultLimit sets the result count used when Search gets a limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.NewValidationError("limit", n, "must be positive")
		}
		o.limit = n
		return nil
	}
}

// WithFallback sets the seed collaborator used when a catalog returns nothing.
func WithFallback(f Fallback) Option {
	return func(o *options) error {
		o.fallback = f
		return nil
	}
}

// WithRecorder sets the observer notified about gateway calls and searches.
func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		if r == nil {
			r = nopRecorder{}
		}
		o.recorder = r
		return nil
	}
}

// WithDedupOptions passes options through to the duplicate resolver.
func WithDedupOptions(opts ...dedup.Option) Option {
	return func(o *options) error {
		o.dedup = append(o.dedup, opts...)
		return nil
	}
}

// Recorder observes coordinator activity, typically for metrics.
type Recorder interface {
	// GatewayQueried is called once per catalog call.
	GatewayQueried(origin string, elapsed time.Duration, rows int, err error)

	// SearchCompleted is called once per successful search.
	SearchCompleted(result *Result, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) GatewayQueried(string, time.Duration, int, error) {}
func (nopRecorder) SearchCompleted(*Result, time.Duration)          {}
