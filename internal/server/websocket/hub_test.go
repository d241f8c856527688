package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
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

// TestHub_RegisterBeforeRun tests that registration does not block before Run starts.
func TestHub_RegisterBeforeRun(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	done := make(chan struct{})
	go func() {
		hub.Register(NewClient("early", hub, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register blocked without Run")
	}
}

// TestHub_Broadcast tests that every registered client receives a broadcast.
func TestHub_Broadcast(t *testing.T) {
	hub, _ := startHub(t)

	clients := []*Client{NewClient("a", hub, nil), NewClient("b", hub, nil), NewClient("c", hub, nil)}
	for _, c := range clients {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == len(clients) })

	hub.Broadcast(Message{Type: "search.completed", Timestamp: time.Now(), Data: map[string]any{"coverage": "Good"}})

	for _, c := range clients {
		select {
		case msg := <-c.send:
			if msg.Type != "search.completed" {
				t.Errorf("client %s: expected search.completed, got %s", c.ID(), msg.Type)
			}
		case <-time.After(200 * time.Millisecond):
			t.Errorf("client %s did not receive message", c.ID())
		}
	}
}

// TestHub_MessageOrdering tests that a client sees broadcasts in order.
func TestHub_MessageOrdering(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient("ordered", hub, nil)
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	for i := 0; i < 20; i++ {
		hub.Broadcast(Message{Type: "duplicate.merged", Data: i})
	}
	for i := 0; i < 20; i++ {
		select {
		case msg := <-c.send:
			if msg.Data != i {
				t.Fatalf("expected message %d, got %v", i, msg.Data)
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("message %d not received", i)
		}
	}
}

// TestHub_SlowClientDropped tests that a client with a full buffer is disconnected.
func TestHub_SlowClientDropped(t *testing.T) {
	hub, _ := startHub(t)
	slow := &Client{id: "slow", hub: hub, send: make(chan Message, 2)}
	hub.Register(slow)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	for i := 0; i < 5; i++ {
		hub.Broadcast(Message{Type: "rapid", Data: i})
	}
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

// TestHub_Shutdown tests that canceling the context disconnects every client.
func TestHub_Shutdown(t *testing.T) {
	hub, cancel := startHub(t)
	c1, c2 := NewClient("1", hub, nil), NewClient("2", hub, nil)
	hub.Register(c1)
	hub.Register(c2)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-c1.send; ok {
		t.Error("expected client send channel to be closed")
	}
}

// TestHub_ConcurrentRegisterUnregister tests concurrent membership changes.
func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	clients := make([]*Client, 10)
	var wg sync.WaitGroup
	for i := range clients {
		clients[i] = NewClient("c", hub, nil)
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Register(c)
		}(clients[i])
	}
	wg.Wait()
	waitFor(t, func() bool { return hub.ClientCount() == len(clients) })

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Unregister(c)
		}(c)
	}
	wg.Wait()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

// TestClient_Pumps tests a full round trip over a real connection.
func TestClient_Pumps(t *testing.T) {
	hub, _ := startHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("remote", hub, conn)
		hub.Register(c)
		go c.WritePump()
		go c.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: "search.completed", Data: map[string]any{"request_id": "r-1"}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid frame: %v", err)
	}
	if msg.Type != "search.completed" {
		t.Errorf("expected search.completed, got %s", msg.Type)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}
