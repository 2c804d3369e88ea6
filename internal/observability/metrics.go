// Package observability holds the Prometheus collectors and OpenTelemetry setup shared by the app.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttempts counts provider attempts by media kind, provider and outcome class.
	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelpost_generation_attempts_total",
		Help: "Total number of provider attempts by kind, provider and outcome",
	}, []string{"kind", "provider", "outcome"})

	// GenerationDuration records how long a single provider attempt took.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pixelpost_generation_duration_seconds",
		Help:    "Provider attempt latency in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"kind", "provider"})

	// GenerationFallbacks counts requests that exhausted every provider.
	GenerationFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelpost_generation_fallbacks_total",
		Help: "Total number of generations served by the local synthesizer",
	}, []string{"kind"})

	// MediaBytesStored counts bytes written to media storage.
	MediaBytesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelpost_media_bytes_stored_total",
		Help: "Total bytes of generated media written to storage",
	}, []string{"kind", "source"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pixelpost_database_query_duration_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelpost_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// ObserveAttempt records one provider attempt.
func ObserveAttempt(kind, provider, outcome string, start time.Time) {
	GenerationAttempts.WithLabelValues(kind, provider, outcome).Inc()
	GenerationDuration.WithLabelValues(kind, provider).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
