// Package serve implements the serve command, which runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cmd/alerts"
	"github.com/agentstation/servicemap/internal/server"
	"github.com/agentstation/servicemap/pkg/errors"
)

// ShutdownTimeout bounds connection draining on shutdown.
const ShutdownTimeout = 30 * time.Second

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the search REST API",
		Long: `Serve starts the federated search HTTP API.

Features:
  - POST/GET /api/v1/search with cached responses
  - POST/GET /api/v1/similarity for name comparison
  - Search activity over WebSocket (/api/v1/searches/ws) and SSE (/api/v1/searches/stream)
  - Health (/api/v1/health) and readiness (/api/v1/ready) probes
  - Prometheus metrics on /metrics
  - Per-IP rate limiting, CORS, request logging and panic recovery
  - Graceful shutdown with connection draining`,
		Example: `  # Start on default port 8080
  servicemap serve

  # Bind all interfaces on a custom port
  servicemap serve --host 0.0.0.0 --port 3000

  # Allow a browser front end and disable rate limiting
  servicemap serve --cors-origins https://app.example.com --rate-limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			return run(cmd, app, cfg)
		},
	}

	cmd.Flags().IntP("port", "p", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Int("rate-burst", 0, "Rate limit burst (default: the per-minute limit)")
	cmd.Flags().Bool("cache", true, "Cache search responses")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "Cache TTL for the in-memory cache")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable metrics endpoint")
	cmd.Flags().Bool("streams", defaults.StreamsEnabled, "Enable WebSocket and SSE activity streams")

	return cmd
}

// configFromFlags builds the server configuration from parsed flags.
func configFromFlags(cmd *cobra.Command) (server.Config, error) {
	f := cmd.Flags()
	cfg := server.DefaultConfig()

	cfg.Port, _ = f.GetInt("port")
	cfg.Host, _ = f.GetString("host")
	cfg.PathPrefix, _ = f.GetString("prefix")
	cfg.CORSEnabled, _ = f.GetBool("cors")
	cfg.CORSOrigins, _ = f.GetStringSlice("cors-origins")
	cfg.RateLimit, _ = f.GetInt("rate-limit")
	cfg.RateBurst, _ = f.GetInt("rate-burst")
	cfg.CacheTTL, _ = f.GetDuration("cache-ttl")
	cfg.ReadTimeout, _ = f.GetDuration("read-timeout")
	cfg.WriteTimeout, _ = f.GetDuration("write-timeout")
	cfg.IdleTimeout, _ = f.GetDuration("idle-timeout")
	cfg.MetricsEnabled, _ = f.GetBool("metrics")
	cfg.StreamsEnabled, _ = f.GetBool("streams")

	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}
	if enabled, _ := f.GetBool("cache"); !enabled {
		cfg.CacheTTL = -1
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, errors.NewValidationError("port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.RateLimit < 0 {
		return cfg, errors.NewValidationError("rate-limit", cfg.RateLimit, "must not be negative")
	}
	return cfg, nil
}

func run(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	ctx := cmd.Context()
	logger := app.Logger()

	client, err := app.Client(ctx)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithReadiness(app.Ping),
	}
	if cfg.CacheTTL > 0 {
		c, err := app.Cache(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithCache(c))
	}
	if cfg.MetricsEnabled {
		recorder, gatherer := app.Metrics()
		opts = append(opts, server.WithMetrics(recorder, gatherer))
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Bool("cache", cfg.CacheTTL > 0).
		Msg("Starting API server")

	srv, err := server.New(client, cfg, opts...)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	srv.Start()

	notes := alerts.NewWriter(cmd.ErrOrStderr(), app.NoColor())
	return serveUntilDone(ctx, srv, srv.HTTPServer(), notes, app)
}

// serveUntilDone runs httpServer until ctx is cancelled, then drains
// connections and stops the server's background services.
func serveUntilDone(ctx context.Context, srv *server.Server, httpServer *http.Server, notes *alerts.Writer, app application.Application) error {
	logger := app.Logger()
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Server starting")
		notes.Write(alerts.NewInfo("Serving on http://" + httpServer.Addr).WithDetails("Press Ctrl+C to stop"))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			_ = srv.Shutdown(context.Background())
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Background services did not stop in time")
	}

	logger.Info().Msg("Server stopped gracefully")
	notes.Write(alerts.NewSuccess("Server stopped gracefully"))
	return nil
}
