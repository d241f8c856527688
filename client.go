// Package servicemap searches two independent service-provider catalogs as
// one: a company catalog and an individual-worker catalog. A search fans out
// to both, removes records that describe the same provider, ranks the
// survivors and explains how each catalog contributed.
//
// Example usage:
//
//	sm, err := servicemap.New(
//	    servicemap.WithPrimary(companies),
//	    servicemap.WithSecondary(workers),
//	    servicemap.WithFallback(seed),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sm.OnMerge(func(m dedup.MergeRecord) {
//	    log.Printf("merged %s into %s", m.RemovedName, m.KeptName)
//	})
//
//	result, err := sm.SearchText(ctx, "leaking pipe in chicago, urgent", 10)
package servicemap

import (
	"context"

	"github.com/agentstation/servicemap/internal/intent"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/query"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// Compile-time interface checks.
var (
	_ Searcher = (*client)(nil)
	_ Hooks    = (*client)(nil)
)

// Searcher runs federated searches.
type Searcher interface {
	// Search runs a search with a caller-supplied intent analysis.
	Search(ctx context.Context, raw string, in query.Intent, limit int) (*federation.Result, error)

	// SearchText analyzes raw with the configured analyzer, then searches.
	SearchText(ctx context.Context, raw string, limit int) (*federation.Result, error)

	// Compare scores two provider names and classifies the score against
	// the duplicate threshold.
	Compare(a, b string) (float64, similarity.Band)

	// Threshold returns the duplicate threshold in use.
	Threshold() float64
}

// Client is the entry point for federated provider search.
type Client interface {
	Searcher

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	coordinator *federation.Coordinator
	analyzer    intent.Analyzer
	hooks       *hooks
}

// New creates a Client. Both catalog gateways are required.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.primary == nil {
		return nil, errors.NewConfigError("servicemap", "primary catalog gateway is required", nil)
	}
	if o.secondary == nil {
		return nil, errors.NewConfigError("servicemap", "secondary catalog gateway is required", nil)
	}

	coordinator, err := federation.NewCoordinator(o.primary, o.secondary, o.coordinatorOptions()...)
	if err != nil {
		return nil, err
	}

	return &client{
		coordinator: coordinator,
		analyzer:    o.analyzer,
		hooks:       newHooks(),
	}, nil
}

// Search implements Searcher.
func (c *client) Search(ctx context.Context, raw string, in query.Intent, limit int) (*federation.Result, error) {
	result, err := c.coordinator.Search(ctx, raw, in, limit)
	if err != nil {
		return nil, err
	}
	c.hooks.trigger(result)
	return result, nil
}

// SearchText implements Searcher.
func (c *client) SearchText(ctx context.Context, raw string, limit int) (*federation.Result, error) {
	in, err := c.analyzer.Analyze(ctx, raw)
	if err != nil {
		// A failed analysis degrades to defaults rather than failing the search.
		logging.FromContext(ctx).Warn().Err(err).Msg("Intent analysis failed; searching with defaults")
		in = query.Intent{}
	}
	return c.Search(ctx, raw, in, limit)
}

// Compare implements Searcher.
func (c *client) Compare(a, b string) (float64, similarity.Band) {
	score := similarity.Score(a, b)
	return score, similarity.Classify(score, c.Threshold())
}

// Threshold implements Searcher.
func (c *client) Threshold() float64 {
	return c.coordinator.Resolver().Threshold()
}
