// Package metrics defines the Prometheus instruments for checks and dispatch
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "farm_alerts"

// Metrics holds the Prometheus counters and histograms for checks and dispatch.
type Metrics struct {
	AlertsGenerated         *prometheus.CounterVec // labels: type, severity
	NotificationsSent       prometheus.Counter
	NotificationFailures    prometheus.Counter
	NotificationsSuppressed *prometheus.CounterVec // labels: reason={preference,no_contact}
	AlertsMarkedSent        prometheus.Counter
	CheckRuns               *prometheus.CounterVec // labels: outcome={ok,skipped,storage_error,dispatch_error,panic}
	CheckRunDuration        prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_generated_total",
			Help:      "Alerts created by the rule evaluator.",
		}, []string{"type", "severity"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Messages accepted by the notification transport.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Per-recipient send attempts that failed.",
		}),
		NotificationsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Recipients skipped by preference or missing contact channel.",
		}, []string{"reason"}),
		AlertsMarkedSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_marked_sent_total",
			Help:      "Alerts flagged as sent after a dispatch pass.",
		}),
		CheckRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_runs_total",
			Help:      "Scheduled check runs by outcome.",
		}, []string{"outcome"}),
		CheckRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_run_duration_seconds",
			Help:      "Duration of a full evaluate and dispatch run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertsGenerated,
		m.NotificationsSent,
		m.NotificationFailures,
		m.NotificationsSuppressed,
		m.AlertsMarkedSent,
		m.CheckRuns,
		m.CheckRunDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
