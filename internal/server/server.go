package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/metrics"
	"github.com/agentstation/servicemap/internal/server/events"
	"github.com/agentstation/servicemap/internal/server/events/adapters"
	"github.com/agentstation/servicemap/internal/server/handlers"
	"github.com/agentstation/servicemap/internal/server/sse"
	ws "github.com/agentstation/servicemap/internal/server/websocket"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         servicemap.Client
	cache          cache.Cache
	recorder       *metrics.Recorder
	gatherer       prometheus.Gatherer
	ready          handlers.ReadinessCheck
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache replaces the default in-memory response cache.
func WithCache(c cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithMetrics reports HTTP and cache metrics to rec and serves g on /metrics.
func WithMetrics(rec *metrics.Recorder, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.recorder = rec
		s.gatherer = g
	}
}

// WithReadiness sets the check behind the readiness probe.
func WithReadiness(check handlers.ReadinessCheck) Option {
	return func(s *Server) {
		s.ready = check
	}
}

// New creates a new server instance for client.
func New(client servicemap.Client, cfg Config, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, errors.NewConfigError("server", "a servicemap client is required", nil)
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultConfig().PathPrefix
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}

	nop := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    &nop,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil && cfg.CacheTTL > 0 {
		s.cache = cache.NewMemory(cfg.CacheTTL, cfg.CacheTTL*2)
	}

	s.logger.Debug().Msg("Creating event broker and transports")
	s.broker = events.NewBroker(s.logger)
	s.wsHub = ws.NewHub(s.logger)
	s.sseBroadcaster = sse.NewBroadcaster(s.logger)
	s.broker.Subscribe(adapters.NewWebSocketSubscriber(s.wsHub))
	s.broker.Subscribe(adapters.NewSSESubscriber(s.sseBroadcaster))

	s.connectHooks()
	s.logger.Debug().Str("addr", cfg.Addr()).Msg("Server instance created")
	return s, nil
}

// connectHooks publishes search activity from the client to the broker.
func (s *Server) connectHooks() {
	s.client.OnSearch(func(result *federation.Result) {
		s.broker.PublishSearch(result)
	})
	s.client.OnMerge(func(m dedup.MergeRecord) {
		s.broker.Publish(events.DuplicateMerged, events.MergePayload{MergeRecord: m})
	})
	s.logger.Debug().Msg("Search hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, SSE
// broadcaster). Calling it more than once has no effect.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		for _, run := range []func(context.Context){s.broker.Run, s.wsHub.Run, s.sseBroadcaster.Run} {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				run(s.ctx)
			}()
		}
		s.logger.Debug().Msg("Background services started")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server for the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown stops background services and waits for them until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Cache returns the response cache, or nil when caching is disabled.
func (s *Server) Cache() cache.Cache {
	return s.cache
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
