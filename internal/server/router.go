package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/servicemap/internal/server/handlers"
	"github.com/agentstation/servicemap/internal/server/middleware"
	"github.com/agentstation/servicemap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	deps := handlers.Deps{
		Client:         s.client,
		Cache:          s.cache,
		Broker:         s.broker,
		WSHub:          s.wsHub,
		SSEBroadcaster: s.sseBroadcaster,
		Upgrader:       s.upgrader,
		Ready:          s.ready,
		Logger:         s.logger,
		StartTime:      s.startTime,
	}
	if s.recorder != nil {
		deps.Recorder = s.recorder
	}
	h := handlers.New(deps)

	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	mux.HandleFunc("POST "+prefix+"/search", h.HandleSearch)
	mux.HandleFunc("GET "+prefix+"/search", h.HandleSearchQuery)
	mux.HandleFunc(prefix+"/similarity", h.HandleSimilarity)

	if s.config.StreamsEnabled {
		mux.HandleFunc("GET "+prefix+"/searches/ws", h.HandleWebSocket)
		mux.HandleFunc("GET "+prefix+"/searches/stream", h.HandleSSE)
	}

	if s.config.MetricsEnabled && s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found", r.Method+" "+r.URL.Path)
	})
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config
	var chain []func(http.Handler) http.Handler

	chain = append(chain, middleware.Recovery(s.logger), middleware.RequestID, middleware.Logger(s.logger))
	if s.recorder != nil {
		chain = append(chain, middleware.Metrics(s.recorder))
	}
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}
	if cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, s.logger)))
	}

	return middleware.Chain(chain...)(handler)
}
