// Package metrics exposes approval workflow counters to Prometheus
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signage_ops"

// Metrics records approval activity
type Metrics interface {
	ServePrometheus() http.Handler
	MustRegisterMetrics(registry *prometheus.Registry)

	RequestSubmitted(kind string)
	RequestDecided(kind, status string)
	NoticeAppended(kind string)
	EffectFailed(effectType string)
	SetPending(n int)

	RequestsIncrease(label *RequestInfo)
}

// RequestInfo describes one served HTTP request
type RequestInfo struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
}

type appMetrics struct {
	registry *prometheus.Registry

	submitted     *prometheus.CounterVec
	decided       *prometheus.CounterVec
	notices       *prometheus.CounterVec
	effectFailure *prometheus.CounterVec
	pending       prometheus.Gauge
	httpRequests  *prometheus.SummaryVec
}

// New creates metrics on a private registry
func New() Metrics {
	registry := prometheus.NewRegistry()

	m := &appMetrics{
		registry: registry,
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "submitted_total",
			Help:      "Approval requests submitted",
		}, []string{"kind"}),
		decided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "decided_total",
			Help:      "Approval requests decided",
		}, []string{"kind", "status"}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "notices_total",
			Help:      "Informational records appended to the approval feed",
		}, []string{"kind"}),
		effectFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "effect_failures_total",
			Help:      "Side effects a collaborator failed to apply",
		}, []string{"effect"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "pending",
			Help:      "Approval requests waiting for a decision",
		}),
		httpRequests: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "incoming_requests",
			Help:      "Served HTTP requests in seconds",
		}, []string{"method", "path", "status"}),
	}

	m.MustRegisterMetrics(registry)
	return m
}

func (m *appMetrics) ServePrometheus() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *appMetrics) MustRegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(
		m.submitted,
		m.decided,
		m.notices,
		m.effectFailure,
		m.pending,
		m.httpRequests,
	)
}

func (m *appMetrics) RequestSubmitted(kind string) {
	m.submitted.WithLabelValues(kind).Inc()
}

func (m *appMetrics) RequestDecided(kind, status string) {
	m.decided.WithLabelValues(kind, status).Inc()
}

func (m *appMetrics) NoticeAppended(kind string) {
	m.notices.WithLabelValues(kind).Inc()
}

func (m *appMetrics) EffectFailed(effectType string) {
	m.effectFailure.WithLabelValues(effectType).Inc()
}

func (m *appMetrics) SetPending(n int) {
	m.pending.Set(float64(n))
}

func (m *appMetrics) RequestsIncrease(label *RequestInfo) {
	m.httpRequests.WithLabelValues(
		label.Method,
		label.Path,
		strconv.Itoa(label.Status),
	).Observe(label.Duration.Seconds())
}
