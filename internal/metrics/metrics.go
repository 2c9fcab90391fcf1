// Package metrics exposes Prometheus instrumentation for the dashboard service.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dashboard"

// Persist triggers.
const (
	TriggerImmediate = "immediate"
	TriggerDebounced = "debounced"
	TriggerFlush     = "flush"
	TriggerCreate    = "create"
)

// Outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
	OutcomeStale   = "stale"
	OutcomeEmpty   = "empty"
	OutcomeFound   = "found"
	OutcomeMerged  = "merged"
)

// Metrics holds every collector the service registers.
type Metrics struct {
	persistTotal   *prometheus.CounterVec
	coalesced      prometheus.Counter
	loadTotal      *prometheus.CounterVec
	repairs        prometheus.Counter
	sessions       prometheus.Gauge
	requestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		persistTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_total",
			Help:      "Dashboard save attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_coalesced_total",
			Help:      "Pending debounced saves superseded by a newer layout change.",
		}),
		loadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_total",
			Help:      "Dashboard loads by outcome.",
		}, []string{"outcome"}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_repairs_total",
			Help:      "Layout entries synthesized or dropped while loading stored dashboards.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open layout sessions.",
		}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.persistTotal, m.coalesced, m.loadTotal, m.repairs, m.sessions, m.requestLatency)
	return m
}

// Persist records one save attempt.
func (m *Metrics) Persist(trigger, outcome string) {
	if m == nil {
		return
	}
	m.persistTotal.WithLabelValues(trigger, outcome).Inc()
}

// Coalesced records a debounced save cancelled by a newer one.
func (m *Metrics) Coalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

// Load records a load outcome.
func (m *Metrics) Load(outcome string) {
	if m == nil {
		return
	}
	m.loadTotal.WithLabelValues(outcome).Inc()
}

// Repairs adds n repaired layout entries.
func (m *Metrics) Repairs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.repairs.Add(float64(n))
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
