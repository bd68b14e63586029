// Package metrics holds the Prometheus collectors of a dashboard session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "serosis_dashboard"

type Metrics struct {
	Pulls         *prometheus.CounterVec
	PullLatency   *prometheus.HistogramVec
	Pushes        *prometheus.CounterVec
	Reconnects    prometheus.Counter
	Connected     prometheus.Gauge
	StaleDiscards *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Language      *prometheus.GaugeVec
}

// New registers the collectors on reg. A nil reg gets a private registry so
// several sessions can live in the same process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pulls_total",
			Help:      "Pull requests by domain and outcome.",
		}, []string{"domain", "outcome"}),
		PullLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pull_duration_seconds",
			Help:      "Pull request latency by domain.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain"}),
		Pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_messages_total",
			Help:      "Push messages received by type.",
		}, []string{"type"}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Scheduled reconnection attempts of the push channel.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "push_connected",
			Help:      "1 while the push channel is open.",
		}),
		StaleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_discards_total",
			Help:      "Responses dropped because a newer one was already applied.",
		}, []string{"domain"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications posted by severity.",
		}, []string{"severity"}),
		Language: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "language",
			Help:      "Active language (1 for the current code).",
		}, []string{"code"}),
	}
	reg.MustRegister(m.Pulls, m.PullLatency, m.Pushes, m.Reconnects, m.Connected,
		m.StaleDiscards, m.Notifications, m.Language)
	return m
}

// SetLanguage flips the language gauge to code.
func (m *Metrics) SetLanguage(code string) {
	m.Language.Reset()
	m.Language.WithLabelValues(code).Set(1)
}

// SetConnected records the push channel state.
func (m *Metrics) SetConnected(up bool) {
	if up {
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}
