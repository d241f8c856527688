package application

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/internal/cache"
	"github.com/agentstation/servicemap/internal/metrics"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc       func(ctx context.Context, opts ...servicemap.Option) (servicemap.Client, error)
	CatalogsFunc     func(ctx context.Context) (Lister, Lister, error)
	CacheFunc        func(ctx context.Context) (cache.Cache, error)
	MetricsFunc      func() (*metrics.Recorder, prometheus.Gatherer)
	PingFunc         func(ctx context.Context) error
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(ctx context.Context, opts ...servicemap.Option) (servicemap.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx, opts...)
	}
	return nil, nil
}

// Catalogs returns listers using the mock function or nil.
func (m *Mock) Catalogs(ctx context.Context) (Lister, Lister, error) {
	if m.CatalogsFunc != nil {
		return m.CatalogsFunc(ctx)
	}
	return nil, nil, nil
}

// Cache returns a cache using the mock function or nil.
func (m *Mock) Cache(ctx context.Context) (cache.Cache, error) {
	if m.CacheFunc != nil {
		return m.CacheFunc(ctx)
	}
	return nil, nil
}

// Metrics returns a recorder using the mock function or nil.
func (m *Mock) Metrics() (*metrics.Recorder, prometheus.Gatherer) {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil, nil
}

// Ping uses the mock function or succeeds.
func (m *Mock) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// NoColor always disables color in tests.
func (m *Mock) NoColor() bool {
	return true
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
