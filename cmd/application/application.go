// Package application provides the application interface for servicemap
// commands.
//
// Commands accept an Application rather than the concrete App so they can be
// tested with a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(ctx context.Context, opts ...servicemap.Option) (servicemap.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := search.NewCommand(mock)
package application

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/metrics"
	"github.com/agentstation/servicemap/pkg/providers"
)

// Lister lists every record of one catalog, for offline audits.
type Lister interface {
	Name() string
	All(ctx context.Context) ([]providers.Provider, error)
}

// Application provides what commands need from the running application.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the federated search client, connecting both catalogs
	// on first use. Without options the shared instance is returned; with
	// options a new client is built over the same connections.
	Client(ctx context.Context, opts ...servicemap.Option) (servicemap.Client, error)

	// Catalogs returns listers over the primary and secondary catalogs.
	Catalogs(ctx context.Context) (primary, secondary Lister, err error)

	// Cache returns the configured response cache.
	Cache(ctx context.Context) (cache.Cache, error)

	// Metrics returns the shared recorder and the registry it writes to.
	Metrics() (*metrics.Recorder, prometheus.Gatherer)

	// Ping verifies both catalog connections.
	Ping(ctx context.Context) error

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, etc).
	OutputFormat() string

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
