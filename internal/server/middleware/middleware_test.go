package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap/pkg/logging"
)

// TestChain tests middleware composition order.
func TestChain(t *testing.T) {
	var calls []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("m1"), mark("m2"), mark("m3"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls = append(calls, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"m1", "m2", "m3", "handler"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("expected call order %v, got %v", want, calls)
	}
}

// TestRequestID tests request ID propagation.
func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "reused", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = logging.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if seen == "" {
				t.Fatal("expected request ID in context")
			}
			if tt.incoming != "" && seen != tt.incoming {
				t.Errorf("expected request ID %q, got %q", tt.incoming, seen)
			}
			if got := w.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("expected response header %q, got %q", seen, got)
			}
		})
	}
}

// TestLogger tests request logging and the context logger.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Chain(RequestID, Logger(&logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}

	var inner, entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &inner); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if inner["request_id"] != "abc" || inner["path"] != "/api/v1/search" {
		t.Errorf("handler log missing request fields: %v", inner)
	}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", entry["status"])
	}
	if entry["method"] != http.MethodPost {
		t.Errorf("expected method POST, got %v", entry["method"])
	}
}

// TestRecovery tests panic recovery.
func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Recovery(&logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("expected INTERNAL_ERROR body, got %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Error("expected panic to be logged")
	}
}

type recordedRequest struct {
	method, path string
	code         int
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordRequest(method, path string, code int) {
	f.requests = append(f.requests, recordedRequest{method, path, code})
}

// TestMetrics tests that requests are reported by route pattern.
func TestMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", http.NotFound)
	h := Metrics(rec)(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	want := []recordedRequest{
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusNotFound},
	}
	if len(rec.requests) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(rec.requests))
	}
	for i := range want {
		if rec.requests[i] != want[i] {
			t.Errorf("request %d: expected %+v, got %+v", i, want[i], rec.requests[i])
		}
	}
}

// TestRouteLabel tests pattern normalization.
func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"POST /api/v1/search": "/api/v1/search",
		"/api/v1/similarity":  "/api/v1/similarity",
		"":                    "unmatched",
	}
	for pattern, want := range tests {
		if got := routeLabel(pattern); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", pattern, got, want)
		}
	}
}
