// Package app wires configuration, logging, catalog connections and the
// federated search client for the servicemap CLI.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/catalogs/memory"
	"github.com/agentstation/servicemap/internal/catalogs/postgres"
	"github.com/agentstation/servicemap/internal/catalogs/sqlite"
	"github.com/agentstation/servicemap/internal/fallback"
	"github.com/agentstation/servicemap/internal/intent"
	"github.com/agentstation/servicemap/internal/metrics"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
)

var _ application.Application = (*App)(nil)

// catalog is a gateway that can also list its whole catalog.
type catalog interface {
	federation.Gateway
	All(ctx context.Context) ([]providers.Provider, error)
}

// App represents the servicemap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	metricsOnce sync.Once
	recorder    *metrics.Recorder
	registry    *prometheus.Registry

	// Connections and the shared client (lazy-initialized)
	mu        sync.Mutex
	primary   catalog
	secondary catalog
	pingers   []func(context.Context) error
	closers   []func() error
	client    servicemap.Client
	cache     cache.Cache
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool {
	return a.config.NoColor
}

// Metrics returns the recorder and the registry behind it. Go runtime and
// process collectors are registered alongside.
func (a *App) Metrics() (*metrics.Recorder, prometheus.Gatherer) {
	a.metricsOnce.Do(func() {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.recorder = metrics.New(a.registry)
	})
	return a.recorder, a.registry
}

// Client returns the shared search client, creating it lazily. With options
// a new client is built over the same catalog connections; later options
// override the configured ones.
func (a *App) Client(ctx context.Context, opts ...servicemap.Option) (servicemap.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(opts) == 0 && a.client != nil {
		return a.client, nil
	}
	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	base, err := a.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	client, err := servicemap.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	if len(opts) == 0 {
		a.client = client
	}
	return client, nil
}

// Catalogs returns both catalogs for listing.
func (a *App) Catalogs(ctx context.Context) (application.Lister, application.Lister, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.connect(ctx); err != nil {
		return nil, nil, err
	}
	return a.primary, a.secondary, nil
}

// Ping verifies the catalog connections. File-backed catalogs always pass.
func (a *App) Ping(ctx context.Context) error {
	a.mu.Lock()
	pingers := a.pingers
	a.mu.Unlock()

	for _, ping := range pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Cache returns the configured response cache, creating it lazily.
func (a *App) Cache(ctx context.Context) (cache.Cache, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cache != nil {
		return a.cache, nil
	}

	cfg := a.config.Cache
	switch cfg.Backend {
	case CacheLRU:
		a.cache = cache.NewLRU(cfg.Size, cfg.TTL)
	case CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.WrapSource("redis", "ping", err)
		}
		a.closers = append(a.closers, client.Close)
		a.cache = cache.NewRedis(client, cfg.Prefix, cfg.TTL)
	default:
		a.cache = cache.NewMemory(cfg.TTL, 2*cfg.TTL)
	}

	a.logger.Debug().Str("backend", cfg.Backend).Dur("ttl", cfg.TTL).Msg("Response cache ready")
	return a.cache, nil
}

// Shutdown releases catalog connections and the cache client.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close connection during shutdown")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// connect opens both catalogs once. Callers hold a.mu.
func (a *App) connect(ctx context.Context) error {
	if a.primary == nil {
		gw, err := a.openPrimary(ctx)
		if err != nil {
			return err
		}
		a.primary = gw
	}
	if a.secondary == nil {
		gw, err := a.openSecondary(ctx)
		if err != nil {
			return err
		}
		a.secondary = gw
	}
	return nil
}

func (a *App) openPrimary(ctx context.Context) (catalog, error) {
	cfg := a.config.CatalogA
	switch {
	case cfg.DSN != "":
		pool, err := postgres.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		a.pingers = append(a.pingers, pool.Ping)
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.logger.Debug().Str("catalog", "catalog_a").Str("backend", postgres.Name).Msg("Catalog connected")
		return postgres.New(pool, postgres.WithRowCap(a.config.RowCap)), nil
	case cfg.File != "":
		a.logger.Debug().Str("catalog", "catalog_a").Str("file", cfg.File).Msg("Catalog loaded")
		return memory.Load(cfg.File, memory.Companies, memory.WithRowCap(a.config.RowCap))
	default:
		return nil, errors.NewConfigError("catalog_a", "set catalog_a.dsn or catalog_a.file", nil)
	}
}

func (a *App) openSecondary(ctx context.Context) (catalog, error) {
	cfg := a.config.CatalogB
	switch {
	case cfg.Path != "":
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		a.pingers = append(a.pingers, db.PingContext)
		a.closers = append(a.closers, db.Close)
		a.logger.Debug().Str("catalog", "catalog_b").Str("backend", sqlite.Name).Msg("Catalog connected")
		return sqlite.New(db, sqlite.WithRowCap(a.config.RowCap)), nil
	case cfg.File != "":
		a.logger.Debug().Str("catalog", "catalog_b").Str("file", cfg.File).Msg("Catalog loaded")
		return memory.Load(cfg.File, memory.Workers, memory.WithRowCap(a.config.RowCap))
	default:
		return nil, errors.NewConfigError("catalog_b", "set catalog_b.path or catalog_b.file", nil)
	}
}

// clientOptions builds client options from the configuration.
func (a *App) clientOptions(ctx context.Context) ([]servicemap.Option, error) {
	recorder, _ := a.Metrics()
	opts := []servicemap.Option{
		servicemap.WithPrimary(a.primary),
		servicemap.WithSecondary(a.secondary),
		servicemap.WithRecorder(recorder),
	}

	if a.config.Fallback {
		seed, err := fallback.New()
		if err != nil {
			return nil, err
		}
		opts = append(opts, servicemap.WithFallback(seed))
	}
	if a.config.Threshold > 0 {
		opts = append(opts, servicemap.WithThreshold(a.config.Threshold))
	}
	if a.config.TieBreak != "" {
		tb, err := dedup.ParseTieBreak(a.config.TieBreak)
		if err != nil {
			return nil, err
		}
		opts = append(opts, servicemap.WithTieBreak(tb))
	}
	if a.config.GatewayTimeout > 0 {
		opts = append(opts, servicemap.WithGatewayTimeout(a.config.GatewayTimeout))
	}
	if a.config.DefaultLimit > 0 {
		opts = append(opts, servicemap.WithDefaultLimit(a.config.DefaultLimit))
	}

	if a.config.GeminiAPIKey != "" {
		gemini, err := intent.NewGemini(ctx, a.config.GeminiAPIKey, intent.WithModel(a.config.GeminiModel))
		if err != nil {
			return nil, err
		}
		a.logger.Debug().Msg("Using Gemini intent analysis")
		opts = append(opts, servicemap.WithAnalyzer(gemini))
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
