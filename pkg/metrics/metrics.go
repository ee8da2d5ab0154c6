package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatches counts notification fan-out runs by event type and result
	// (ok|partial|error).
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carsaaz_notification_dispatches_total",
			Help: "Total number of notification dispatch runs",
		},
		[]string{"event", "result"},
	)

	// ChannelAttempts counts per-channel delivery attempts and their outcome
	// (sent|skipped|failed).
	ChannelAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carsaaz_channel_attempts_total",
			Help: "Total number of delivery attempts per channel",
		},
		[]string{"channel", "result"},
	)

	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carsaaz_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carsaaz_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
