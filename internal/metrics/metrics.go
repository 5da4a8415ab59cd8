// Package metrics holds the Prometheus collectors for the scoring engine.
// Every collector is registered on a private registry rather than the global default,
// so tests can create as many Metrics values as they like without duplicate-registration panics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ComputationsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics groups the collectors the league service updates.
type Metrics struct {
	Registry *prometheus.Registry

	ComputationsTotal    *prometheus.CounterVec   // by category, outcome
	ComputeDuration      *prometheus.HistogramVec // by category
	NotificationsTotal   *prometheus.CounterVec   // by kind, status
	FinalSeedsRebuilt    prometheus.Counter
	EventsLockedTotal    prometheus.Counter
	StandingsServedTotal prometheus.Counter
	NotifySubscribers    prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ComputationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "league",
			Name:      "event_computations_total",
			Help:      "Event result computations, by category and outcome.",
		}, []string{"category", "outcome"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "league",
			Name:      "event_compute_duration_seconds",
			Help:      "Time spent computing and persisting one event's results.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "league",
			Name:      "notifications_total",
			Help:      "Lock notifications, by kind and delivery status.",
		}, []string{"kind", "status"}),
		FinalSeedsRebuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "league",
			Name:      "final_seeds_rebuilt_total",
			Help:      "Times the Final start scores were rebuilt from the standings.",
		}),
		EventsLockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "league",
			Name:      "events_locked_total",
			Help:      "Unlocked to locked transitions.",
		}),
		StandingsServedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "league",
			Name:      "standings_served_total",
			Help:      "Season standings aggregations.",
		}),
		NotifySubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "league",
			Name:      "notification_subscribers",
			Help:      "Clients currently connected to the notification stream.",
		}),
	}
	reg.MustRegister(
		m.ComputationsTotal,
		m.ComputeDuration,
		m.NotificationsTotal,
		m.FinalSeedsRebuilt,
		m.EventsLockedTotal,
		m.StandingsServedTotal,
		m.NotifySubscribers,
	)
	return m
}

// ObserveCompute records one computation attempt.
func (m *Metrics) ObserveCompute(category, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ComputationsTotal.WithLabelValues(category, outcome).Inc()
	m.ComputeDuration.WithLabelValues(category).Observe(time.Since(started).Seconds())
}

// Notified counts one notification by kind and status ("sent" or "failed").
func (m *Metrics) Notified(kind, status string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// SeedsRebuilt counts a Final reseed.
func (m *Metrics) SeedsRebuilt() {
	if m == nil {
		return
	}
	m.FinalSeedsRebuilt.Inc()
}

// Locked counts an unlocked to locked transition.
func (m *Metrics) Locked() {
	if m == nil {
		return
	}
	m.EventsLockedTotal.Inc()
}

// StandingsServed counts one standings aggregation.
func (m *Metrics) StandingsServed() {
	if m == nil {
		return
	}
	m.StandingsServedTotal.Inc()
}

// Subscribers sets the live subscriber gauge.
func (m *Metrics) Subscribers(n int) {
	if m == nil {
		return
	}
	m.NotifySubscribers.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
