package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Errorf("debug message should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "info message") || !strings.Contains(output, "warning message") {
		t.Errorf("expected info and warning messages in output, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithOrigin(ctx, "catalog_b")
	ctx = logging.WithCatalog(ctx, "sqlite")
	ctx = logging.WithRequestID(ctx, "req-123")

	logging.FromContext(ctx).Info().Msg("catalog queried")

	testLogger.AssertContains(t, `"origin":"catalog_b"`)
	testLogger.AssertContains(t, `"catalog":"sqlite"`)
	testLogger.AssertContains(t, `"request_id":"req-123"`)
	testLogger.AssertContains(t, "catalog queried")

	if got := logging.RequestID(ctx); got != "req-123" {
		t.Errorf("RequestID() = %q, want req-123", got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if logging.FromContext(context.Background()) != logging.Default() {
		t.Error("expected default logger for a bare context")
	}
	//nolint:staticcheck // nil context is handled on purpose
	if logging.FromContext(nil) != logging.Default() {
		t.Error("expected default logger for a nil context")
	}
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)

	logging.Warn().Str("origin", "catalog_a").Msg("gateway timed out")

	if captured.Count() != 1 {
		t.Fatalf("expected 1 entry, got %d", captured.Count())
	}
	captured.AssertContains(t, "gateway timed out")
}
