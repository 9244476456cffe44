// Package metrics exposes Prometheus instrumentation for the progress engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	registry *prometheus.Registry

	// SubmissionsProcessed counts processed submissions by review status.
	SubmissionsProcessed *prometheus.CounterVec

	// ProgressRecomputeDuration observes the duration of progress recomputes.
	ProgressRecomputeDuration prometheus.Histogram

	// LeaderboardRebuildDuration observes the duration of leaderboard rebuilds.
	LeaderboardRebuildDuration prometheus.Histogram

	// MilestonesAchieved counts milestones achieved across all participants.
	MilestonesAchieved prometheus.Counter

	// AlertTransitions counts alert lifecycle transitions by target status.
	AlertTransitions *prometheus.CounterVec

	// InterventionTransitions counts intervention lifecycle transitions.
	InterventionTransitions *prometheus.CounterVec

	// OpenAlerts tracks the number of open alerts by severity.
	OpenAlerts *prometheus.GaugeVec

	// HTTPRequests counts HTTP requests by method, route pattern and status
	// class. Route patterns keep the label set bounded; raw paths would
	// mint a new series per UUID.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes HTTP request durations by route pattern.
	HTTPDuration *prometheus.HistogramVec
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		SubmissionsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "progress",
			Name:      "submissions_processed_total",
			Help:      "Number of processed submissions by review status.",
		}, []string{"status"}),

		ProgressRecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arena",
			Subsystem: "progress",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of per-participation progress recomputes.",
			Buckets:   prometheus.DefBuckets,
		}),

		LeaderboardRebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arena",
			Subsystem: "leaderboard",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full leaderboard rebuilds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		MilestonesAchieved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "milestones",
			Name:      "achieved_total",
			Help:      "Number of milestones achieved.",
		}),

		AlertTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "alerts",
			Name:      "transitions_total",
			Help:      "Number of alert lifecycle transitions by target status.",
		}, []string{"to"}),

		InterventionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "interventions",
			Name:      "transitions_total",
			Help:      "Number of intervention lifecycle transitions by target status.",
		}, []string{"to"}),

		OpenAlerts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "arena",
			Subsystem: "alerts",
			Name:      "open",
			Help:      "Number of open alerts by severity.",
		}, []string{"severity"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arena",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records a completed HTTP request. route is the matched route
// pattern, not the raw URL path.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, httpStatusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// httpStatusClass collapses status codes into classes to bound cardinality.
func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
