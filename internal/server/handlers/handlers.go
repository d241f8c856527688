// Package handlers provides the HTTP handlers for the servicemap API.
//
// Handlers are organized by concern:
//
//   - search.go: federated search (POST and GET)
//   - similarity.go: provider name comparison
//   - health.go: liveness and readiness probes
//   - realtime.go: WebSocket and SSE search activity feeds
//
// Every handler answers with the response envelope and maps typed errors
// through response.ErrorFromType.
package handlers

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/server/events"
	"github.com/agentstation/servicemap/internal/server/sse"
	ws "github.com/agentstation/servicemap/internal/server/websocket"
)

// MaxLimit caps the number of ranked results a request may ask for.
const MaxLimit = 100

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	RecordCacheLookup(hit bool)
}

// ReadinessCheck reports whether the server's dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         servicemap.Client
	cache          cache.Cache
	recorder       CacheRecorder
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	ready          ReadinessCheck
	logger         *zerolog.Logger
	startTime      time.Time
}

// Deps groups the collaborators a Handlers needs. Cache, Recorder and
// Ready are optional.
type Deps struct {
	Client         servicemap.Client
	Cache          cache.Cache
	Recorder       CacheRecorder
	Broker         *events.Broker
	WSHub          *ws.Hub
	SSEBroadcaster *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Ready          ReadinessCheck
	Logger         *zerolog.Logger
	StartTime      time.Time
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	h := &Handlers{
		client:         d.Client,
		cache:          d.Cache,
		recorder:       d.Recorder,
		broker:         d.Broker,
		wsHub:          d.WSHub,
		sseBroadcaster: d.SSEBroadcaster,
		upgrader:       d.Upgrader,
		ready:          d.Ready,
		logger:         d.Logger,
		startTime:      d.StartTime,
	}
	if h.logger == nil {
		nop := zerolog.Nop()
		h.logger = &nop
	}
	if h.startTime.IsZero() {
		h.startTime = time.Now()
	}
	return h
}
