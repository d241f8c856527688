// Package events fans search activity out to streaming transports.
//
// The root client's OnSearch and OnMerge hooks publish into a Broker, which
// forwards every event to its subscribers (WebSocket, SSE). Transports only
// see the Event envelope; payload types are defined here.
package events

import (
	"time"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
)

// EventType names an event on the activity feed.
type EventType string

// Event types.
const (
	// Search events (from client hooks).
	SearchCompleted EventType = "search.completed"
	DuplicateMerged EventType = "duplicate.merged"

	// Degradation events, derived from a search summary.
	CatalogUnavailable EventType = "catalog.unavailable"
	FallbackUsed       EventType = "fallback.used"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	ID        uint64    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SearchPayload summarizes a completed search without the provider records.
type SearchPayload struct {
	RequestID         string             `json:"request_id"`
	Query             string             `json:"query"`
	Results           int                `json:"results"`
	Coverage          string             `json:"coverage"`
	DuplicatesRemoved int                `json:"duplicates_removed"`
	Unavailable       []providers.Origin `json:"unavailable,omitempty"`
	FallbackUsed      []providers.Origin `json:"fallback_used,omitempty"`
	TopProvider       string             `json:"top_provider,omitempty"`
}

// NewSearchPayload builds the feed payload for result.
func NewSearchPayload(result *federation.Result) SearchPayload {
	p := SearchPayload{
		RequestID:         result.RequestID,
		Query:             result.Spec.CanonicalText,
		Results:           len(result.Ranked),
		Coverage:          result.Summary.Coverage.String(),
		DuplicatesRemoved: result.Summary.DuplicatesRemoved,
		Unavailable:       result.Summary.Unavailable,
		FallbackUsed:      result.Summary.FallbackUsed,
	}
	if len(result.Ranked) > 0 {
		p.TopProvider = result.Ranked[0].Provider.DisplayName
	}
	return p
}

// MergePayload describes one removed duplicate.
type MergePayload struct {
	dedup.MergeRecord
}

// OriginPayload names the catalogs a degradation event refers to.
type OriginPayload struct {
	RequestID string             `json:"request_id"`
	Origins   []providers.Origin `json:"origins"`
}
