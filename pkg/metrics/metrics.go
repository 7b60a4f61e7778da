// Package metrics exposes Prometheus instrumentation for the SFTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks server-wide Prometheus metrics.
//
// All metrics use the sftp_ prefix.
type Metrics struct {
	// ActiveSessions tracks the number of currently serving sessions.
	ActiveSessions prometheus.Gauge

	// ConnectionsTotal counts accepted TCP connections by outcome.
	ConnectionsTotal *prometheus.CounterVec

	// AuthFailuresTotal counts rejected authentication attempts.
	AuthFailuresTotal prometheus.Counter

	// BytesTotal counts transferred bytes by direction.
	BytesTotal *prometheus.CounterVec

	// SessionDuration tracks session lifetime distribution.
	SessionDuration prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the metrics set on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sftp_active_sessions",
				Help: "Number of currently serving SFTP sessions",
			},
		),
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sftp_connections_total",
				Help: "Total accepted TCP connections by outcome",
			},
			[]string{"outcome"}, // "served", "rejected", "handshake_failed"
		),
		AuthFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sftp_auth_failures_total",
				Help: "Total rejected authentication attempts",
			},
		),
		BytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sftp_bytes_total",
				Help: "Total transferred bytes by direction",
			},
			[]string{"direction"}, // "upload", "download"
		),
		SessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sftp_session_duration_seconds",
				Help:    "SFTP session duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.ActiveSessions,
		m.ConnectionsTotal,
		m.AuthFailuresTotal,
		m.BytesTotal,
		m.SessionDuration,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
