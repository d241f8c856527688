package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/servicemap/internal/server/events"
	ws "github.com/agentstation/servicemap/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /api/v1/searches/ws.
// @Summary Search activity (WebSocket)
// @Description WebSocket feed of completed searches and merged duplicates
// @Tags activity
// @Success 101 "Switching Protocols"
// @Router /api/v1/searches/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	h.wsHub.Register(client)

	h.broker.Publish(events.ClientConnected, map[string]any{
		"client_id": client.ID(),
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /api/v1/searches/stream.
// @Summary Search activity (SSE)
// @Description Server-Sent Events feed of completed searches and merged duplicates
// @Tags activity
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/v1/searches/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
