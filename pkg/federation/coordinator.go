// Package federation runs one search across both catalogs and returns a
// single deduplicated, ranked candidate list with an integration summary.
//
// The two catalog calls run concurrently and are isolated from each other:
// a catalog that errors, panics or exceeds its timeout contributes an empty
// result and is reported in the summary. The only error Search returns for
// catalog data is an invariant violation in a mapped record.
package federation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/logging"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
	"github.com/agentstation/servicemap/pkg/ranking"
)

// SeedIDPrefix marks identifiers of fallback records.
const SeedIDPrefix = "seed-"

// Result is the outcome of a federated search.
type Result struct {
	RequestID       string              `json:"request_id" yaml:"request_id"`
	Ranked          []ranking.Result    `json:"ranked" yaml:"ranked"`
	Spec            query.Spec          `json:"spec" yaml:"spec"`
	Intent          query.Intent        `json:"intent" yaml:"intent"`
	Summary         Summary             `json:"summary" yaml:"summary"`
	Merges          []dedup.MergeRecord `json:"merges,omitempty" yaml:"merges,omitempty"`
	CrossReferences []CrossReference    `json:"cross_references,omitempty" yaml:"cross_references,omitempty"`
}

// source binds a gateway to the origin and mapper for its rows.
type source struct {
	origin  providers.Origin
	gateway Gateway
	mapRow  func(Row) providers.Provider
}

// Coordinator federates searches over the two catalogs. It holds only
// immutable configuration and is safe for concurrent use.
type Coordinator struct {
	sources  [2]source
	resolver *dedup.Resolver
	timeout  time.Duration
	limit    int
	fallback Fallback
	recorder Recorder
}

// NewCoordinator creates a Coordinator over a company catalog (primary) and
// a worker catalog (secondary). A nil gateway is treated as an unreachable
// catalog.
func NewCoordinator(primary, secondary Gateway, opts ...Option) (*Coordinator, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	resolver, err := dedup.NewResolver(o.dedup...)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		sources: [2]source{
			{origin: providers.CatalogA, gateway: primary, mapRow: MapCompanyRow},
			{origin: providers.CatalogB, gateway: secondary, mapRow: MapWorkerRow},
		},
		resolver: resolver,
		timeout:  o.timeout,
		limit:    o.limit,
		fallback: o.fallback,
		recorder: o.recorder,
	}, nil
}

// Resolver returns the duplicate resolver used by Search.
func (c *Coordinator) Resolver() *dedup.Resolver {
	return c.resolver
}

// Search normalizes the request, queries both catalogs, removes duplicates,
// ranks the survivors and returns at most limit results. A limit <= 0 uses
// the configured default.
//
// Catalog failures never surface as errors, and neither does a ctx deadline:
// a catalog still running when it passes counts as unavailable. Search fails
// only when ctx is canceled or a mapped record violates a Provider invariant.
func (c *Coordinator) Search(ctx context.Context, raw string, intent query.Intent, limit int) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	logger := logging.FromContext(ctx)

	spec := query.Normalize(raw, intent)
	logger.Debug().
		Strs("keywords", spec.Keywords).
		Str("region", spec.RegionHint).
		Str("bias", spec.ProviderBias.String()).
		Str("urgency", spec.Urgency.String()).
		Msg("Normalized search request")

	outcomes := make([]outcome, len(c.sources))
	found := make([][]providers.Provider, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i := range c.sources {
		g.Go(func() error {
			found[i], outcomes[i] = c.collect(gctx, c.sources[i], spec)
			return nil
		})
	}
	_ = g.Wait()

	// A caller deadline only bounds the catalog calls; whatever finished in
	// time is still returned. Explicit cancellation abandons the search.
	if err := ctx.Err(); err != nil && err != context.DeadlineExceeded {
		return nil, fmt.Errorf("search: %w: %w", errors.ErrCanceled, err)
	}

	var merged []providers.Provider
	for _, ps := range found {
		merged = append(merged, ps...)
	}
	for i := range merged {
		if err := merged[i].Validate(); err != nil {
			logger.Error().Err(err).Str("provider", merged[i].Key()).Msg("Catalog record violates provider invariant")
			return nil, err
		}
	}

	res := c.resolver.Resolve(merged)
	ranked := ranking.Rank(res.Kept, spec)
	summary := buildSummary(spec, outcomes, res, ranked)

	if limit <= 0 {
		limit = c.limit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := &Result{
		RequestID:       requestID,
		Ranked:          ranked,
		Spec:            spec,
		Intent:          intent,
		Summary:         summary,
		Merges:          res.Merges,
		CrossReferences: crossReferences(res.Kept, c.resolver.Threshold()),
	}

	elapsed := time.Since(start)
	c.recorder.SearchCompleted(result, elapsed)
	logger.Info().
		Int("primary_matches", summary.PrimaryMatches).
		Int("secondary_matches", summary.SecondaryMatches).
		Int("duplicates_removed", summary.DuplicatesRemoved).
		Int("results", len(ranked)).
		Str("coverage", summary.Coverage.String()).
		Dur("elapsed", elapsed).
		Msg("Federated search completed")

	return result, nil
}

// collect queries one catalog and maps its rows. Failures and timeouts
// produce an empty slice; the fallback is consulted whenever the catalog
// contributed nothing.
func (c *Coordinator) collect(ctx context.Context, src source, spec query.Spec) ([]providers.Provider, outcome) {
	out := outcome{origin: src.origin}
	ctx = logging.WithOrigin(ctx, src.origin.String())
	logger := logging.FromContext(ctx)

	var ps []providers.Provider
	if src.gateway == nil {
		out.unavailable = true
		logger.Debug().Msg("No gateway configured for catalog")
	} else {
		out.gateway = src.gateway.Name()
		start := time.Now()
		rows, err := c.query(ctx, src.gateway, spec)
		c.recorder.GatewayQueried(src.origin.String(), time.Since(start), len(rows), err)
		if err != nil {
			out.unavailable = true
			logger.Warn().Err(err).Str("gateway", out.gateway).Msg("Catalog query failed; continuing without it")
		} else {
			ps = make([]providers.Provider, 0, len(rows))
			for _, row := range rows {
				ps = append(ps, src.mapRow(row))
			}
			out.matched = len(ps)
		}
	}

	if len(ps) == 0 && c.fallback != nil && ctx.Err() != context.Canceled {
		seeds := c.fallback.Sample(src.origin, spec, FallbackSize)
		for i := range seeds {
			seeds[i].Origin = src.origin
			seeds[i].Seeded = true
			if !strings.HasPrefix(seeds[i].SourceID, SeedIDPrefix) {
				seeds[i].SourceID = SeedIDPrefix + seeds[i].SourceID
			}
		}
		if len(seeds) > 0 {
			out.seeded = true
			ps = seeds
			logger.Info().Int("seeds", len(seeds)).Msg("Supplemented empty catalog with seed profiles")
		}
	}

	return ps, out
}

// query runs a single gateway call bounded by the coordinator timeout. The
// call is abandoned, not awaited, once the deadline passes.
func (c *Coordinator) query(ctx context.Context, gw Gateway, spec query.Spec) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type reply struct {
		rows []Row
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: errors.NewSourceError(gw.Name(), "query", fmt.Errorf("panic: %v", r))}
			}
		}()
		rows, err := gw.Query(ctx, spec)
		ch <- reply{rows: rows, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, errors.WrapSource(gw.Name(), "query", r.err)
		}
		return r.rows, nil
	case <-ctx.Done():
		return nil, &errors.TimeoutError{
			Operation: gw.Name() + " query",
			Duration:  c.timeout.String(),
			Message:   ctx.Err().Error(),
		}
	}
}
