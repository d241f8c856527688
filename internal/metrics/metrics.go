// Package metrics exports Prometheus metrics for federated searches and the
// HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
)

// Namespace prefixes every metric name.
const Namespace = "servicemap"

// Gateway call statuses.
const (
	StatusOK          = "ok"
	StatusTimeout     = "timeout"
	StatusUnavailable = "unavailable"
)

// Recorder implements federation.Recorder on Prometheus collectors.
type Recorder struct {
	GatewayCalls     *prometheus.CounterVec
	GatewayDuration  *prometheus.HistogramVec
	GatewayRows      *prometheus.HistogramVec
	Searches         *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	DuplicatesMerged prometheus.Counter
	FallbackUsed     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

var _ federation.Recorder = (*Recorder)(nil)

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		GatewayCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "gateway_calls_total",
				Help:      "Total number of catalog queries",
			},
			[]string{"origin", "status"},
		),
		GatewayDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "gateway_duration_seconds",
				Help:      "Duration of catalog queries in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"origin"},
		),
		GatewayRows: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "gateway_rows",
				Help:      "Distribution of rows returned per catalog query",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"origin"},
		),
		Searches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "searches_total",
				Help:      "Total number of federated searches by coverage",
			},
			[]string{"coverage"},
		),
		SearchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "search_duration_seconds",
				Help:      "Duration of federated searches in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		DuplicatesMerged: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "duplicates_merged_total",
				Help:      "Total number of cross-catalog duplicates removed",
			},
		),
		FallbackUsed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fallback_used_total",
				Help:      "Total number of times seed profiles replaced an empty catalog",
			},
			[]string{"origin"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "code"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of response cache lookups",
			},
			[]string{"result"},
		),
	}
}

// GatewayQueried implements federation.Recorder.
func (r *Recorder) GatewayQueried(origin string, elapsed time.Duration, rows int, err error) {
	r.GatewayCalls.WithLabelValues(origin, gatewayStatus(err)).Inc()
	r.GatewayDuration.WithLabelValues(origin).Observe(elapsed.Seconds())
	r.GatewayRows.WithLabelValues(origin).Observe(float64(rows))
}

// SearchCompleted implements federation.Recorder.
func (r *Recorder) SearchCompleted(result *federation.Result, elapsed time.Duration) {
	r.Searches.WithLabelValues(result.Summary.Coverage.String()).Inc()
	r.SearchDuration.Observe(elapsed.Seconds())
	r.DuplicatesMerged.Add(float64(result.Summary.DuplicatesRemoved))
	for _, o := range result.Summary.FallbackUsed {
		r.FallbackUsed.WithLabelValues(o.String()).Inc()
	}
}

// RecordRequest counts an HTTP request.
func (r *Recorder) RecordRequest(method, path string, code int) {
	r.HTTPRequests.WithLabelValues(method, path, statusText(code)).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}

func gatewayStatus(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.IsTimeout(err):
		return StatusTimeout
	default:
		return StatusUnavailable
	}
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
