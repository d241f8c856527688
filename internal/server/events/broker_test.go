package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/providers"
	"github.com/agentstation/servicemap/pkg/query"
	"github.com/agentstation/servicemap/pkg/ranking"
)

// mockSubscriber records the events it receives.
type mockSubscriber struct {
	events []Event
	mu     sync.Mutex
	closed bool
	err    error
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{events: make([]Event, 0)}
}

func (m *mockSubscriber) Send(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSubscriber) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *mockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func startBroker(t *testing.T) (*Broker, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return b, cancel
}

// TestBroker_BasicOperation tests publish and delivery.
func TestBroker_BasicOperation(t *testing.T) {
	b, _ := startBroker(t)

	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	b.Publish(DuplicateMerged, MergePayload{})
	waitFor(t, func() bool { return len(sub.Events()) == 1 })

	ev := sub.Events()[0]
	if ev.Type != DuplicateMerged {
		t.Errorf("expected %s, got %s", DuplicateMerged, ev.Type)
	}
	if ev.ID != 1 {
		t.Errorf("expected first event ID 1, got %d", ev.ID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

// TestBroker_Ordering tests that subscribers see events in publication order.
func TestBroker_Ordering(t *testing.T) {
	b, _ := startBroker(t)
	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	for i := 0; i < 50; i++ {
		b.Publish(SearchCompleted, i)
	}
	waitFor(t, func() bool { return len(sub.Events()) == 50 })

	for i, ev := range sub.Events() {
		if ev.Data != i {
			t.Fatalf("event %d out of order: %v", i, ev.Data)
		}
	}
}

// TestBroker_SubscriberErrorDoesNotStopFanOut tests that one failing subscriber does not affect others.
func TestBroker_SubscriberErrorDoesNotStopFanOut(t *testing.T) {
	b, _ := startBroker(t)
	bad := newMockSubscriber()
	bad.err = fmt.Errorf("connection reset")
	good := newMockSubscriber()
	b.Subscribe(bad)
	b.Subscribe(good)
	waitFor(t, func() bool { return b.SubscriberCount() == 2 })

	b.Publish(SearchCompleted, nil)
	waitFor(t, func() bool { return len(good.Events()) == 1 })
}

// TestBroker_Unsubscribe tests subscriber removal.
func TestBroker_Unsubscribe(t *testing.T) {
	b, _ := startBroker(t)
	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	b.Unsubscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 0 })
	if !sub.Closed() {
		t.Error("expected unsubscribed subscriber to be closed")
	}
}

// TestBroker_Shutdown tests graceful shutdown.
func TestBroker_Shutdown(t *testing.T) {
	b, cancel := startBroker(t)
	sub1, sub2 := newMockSubscriber(), newMockSubscriber()
	b.Subscribe(sub1)
	b.Subscribe(sub2)
	waitFor(t, func() bool { return b.SubscriberCount() == 2 })

	cancel()
	waitFor(t, func() bool { return b.SubscriberCount() == 0 })
	if !sub1.Closed() || !sub2.Closed() {
		t.Error("expected all subscribers to be closed on shutdown")
	}
}

// TestBroker_SubscribeBeforeRun tests that Subscribe does not block before Run starts.
func TestBroker_SubscribeBeforeRun(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	const numSubscribers = 5
	done := make(chan struct{})
	go func() {
		for i := 0; i < numSubscribers; i++ {
			b.Subscribe(newMockSubscriber())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)
	waitFor(t, func() bool { return b.SubscriberCount() == numSubscribers })
}

func sampleResult() *federation.Result {
	return &federation.Result{
		RequestID: "req-1",
		Spec:      query.Spec{CanonicalText: "leaking pipe in chicago"},
		Ranked: []ranking.Result{
			{Provider: providers.Provider{DisplayName: "Blue Peak Plumbing LLC"}},
			{Provider: providers.Provider{DisplayName: "Metro Electric"}},
		},
		Summary: federation.Summary{
			Coverage:          federation.CoverageFair,
			DuplicatesRemoved: 1,
			Unavailable:       []providers.Origin{providers.CatalogA},
			FallbackUsed:      []providers.Origin{providers.CatalogB},
		},
	}
}

// TestBroker_PublishSearch tests the events derived from a search result.
func TestBroker_PublishSearch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*federation.Result)
		want   []EventType
	}{
		{
			name:   "degraded search",
			mutate: func(*federation.Result) {},
			want:   []EventType{SearchCompleted, CatalogUnavailable, FallbackUsed},
		},
		{
			name: "healthy search",
			mutate: func(r *federation.Result) {
				r.Summary.Unavailable = nil
				r.Summary.FallbackUsed = nil
			},
			want: []EventType{SearchCompleted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := startBroker(t)
			sub := newMockSubscriber()
			b.Subscribe(sub)
			waitFor(t, func() bool { return b.SubscriberCount() == 1 })

			result := sampleResult()
			tt.mutate(result)
			b.PublishSearch(result)
			waitFor(t, func() bool { return len(sub.Events()) == len(tt.want) })

			got := sub.Events()
			for i, typ := range tt.want {
				if got[i].Type != typ {
					t.Errorf("event %d: expected %s, got %s", i, typ, got[i].Type)
				}
			}

			payload, ok := got[0].Data.(SearchPayload)
			if !ok {
				t.Fatalf("expected SearchPayload, got %T", got[0].Data)
			}
			if payload.RequestID != "req-1" || payload.Results != 2 || payload.TopProvider != "Blue Peak Plumbing LLC" {
				t.Errorf("unexpected payload: %+v", payload)
			}
			if payload.Coverage != "Fair" || payload.Query != "leaking pipe in chicago" {
				t.Errorf("unexpected payload: %+v", payload)
			}
		})
	}
}
