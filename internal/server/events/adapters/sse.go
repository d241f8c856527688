package adapters

import (
	"strconv"

	"github.com/agentstation/servicemap/internal/server/events"
	"github.com/agentstation/servicemap/internal/server/sse"
)

// SSESubscriber forwards broker events to the SSE broadcaster.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
}

// NewSSESubscriber creates a new SSE subscriber.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Send queues the event for every SSE client. The broker sequence number
// becomes the SSE id so clients can detect gaps.
func (s *SSESubscriber) Send(event events.Event) error {
	s.broadcaster.Broadcast(sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatUint(event.ID, 10),
		Data:  event.Data,
	})
	return nil
}

// Close is a no-op; the broadcaster manages its own lifecycle.
func (s *SSESubscriber) Close() error {
	return nil
}
