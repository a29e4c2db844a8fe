// Package metrics provides Prometheus metrics for the dock service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	LaunchesTotal       *prometheus.CounterVec
	LaunchSequence      prometheus.Histogram
	StorageErrorsTotal  *prometheus.CounterVec
	ActivityEventsTotal *prometheus.CounterVec
	GenerationsTotal    *prometheus.CounterVec
	ResolutionsTotal    *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		LaunchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_launches_total",
				Help: "Total number of app windows opened by target app.",
			},
			[]string{"app"},
		),
		LaunchSequence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fluxdock_launch_sequence_seconds",
				Help:    "Wall time of a full paced launch sequence.",
				Buckets: prometheus.DefBuckets,
			},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_storage_errors_total",
				Help: "Recovered keyed-store errors by operation.",
			},
			[]string{"op"},
		),
		ActivityEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_activity_events_total",
				Help: "Activity events appended by type.",
			},
			[]string{"type"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_generations_total",
				Help: "Generator calls by artifact kind and status.",
			},
			[]string{"kind", "status"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_resolutions_total",
				Help: "Stored-result resolutions for deep-linked opens by status.",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxdock_http_requests_total",
				Help: "HTTP API requests by method and status code.",
			},
			[]string{"method", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(m.LaunchesTotal)
	reg.MustRegister(m.LaunchSequence)
	reg.MustRegister(m.StorageErrorsTotal)
	reg.MustRegister(m.ActivityEventsTotal)
	reg.MustRegister(m.GenerationsTotal)
	reg.MustRegister(m.ResolutionsTotal)
	reg.MustRegister(m.HTTPRequestsTotal)

	return m
}

// Registry exposes the private registry (for tests and extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLaunch increments the launch counter for app.
func (m *Metrics) RecordLaunch(app string) {
	if m == nil {
		return
	}
	m.LaunchesTotal.WithLabelValues(app).Inc()
}

// ObserveLaunchSequence records how long a paced sequence took.
func (m *Metrics) ObserveLaunchSequence(d time.Duration) {
	if m == nil {
		return
	}
	m.LaunchSequence.Observe(d.Seconds())
}

// RecordStorageError increments the recovered storage error counter.
func (m *Metrics) RecordStorageError(op string) {
	if m == nil {
		return
	}
	m.StorageErrorsTotal.WithLabelValues(op).Inc()
}

// RecordActivity increments the activity counter.
func (m *Metrics) RecordActivity(eventType string) {
	if m == nil {
		return
	}
	m.ActivityEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordGeneration increments the generation counter.
func (m *Metrics) RecordGeneration(kind, status string) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(kind, status).Inc()
}

// RecordResolution increments the resolution counter.
func (m *Metrics) RecordResolution(status string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func (m *Metrics) RecordHTTPRequest(method, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, status).Inc()
}
