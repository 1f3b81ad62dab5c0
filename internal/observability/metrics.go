// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts credential operations by kind and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_auth_events_total",
		Help: "Authentication and recovery events by type and outcome",
	}, []string{"event", "outcome"})

	// EmailsSent counts outbound transactional emails by outcome.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_emails_sent_total",
		Help: "Transactional emails by outcome",
	}, []string{"outcome"})

	// ImageUploads counts upload attempts by image kind and outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_image_uploads_total",
		Help: "Image uploads by kind and outcome",
	}, []string{"kind", "outcome"})

	// ImageUploadBytes records accepted upload sizes.
	ImageUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "socialhub_image_upload_bytes",
		Help:    "Size of accepted image uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialhub_notifications_created_total",
		Help: "Notifications persisted by type",
	}, []string{"type"})
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAuth increments AuthEvents.
func RecordAuth(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
