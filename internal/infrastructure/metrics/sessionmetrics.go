// Package metrics exposes Prometheus collectors for session decisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeAllow  = "allow"
	OutcomeReject = "reject"
)

// SessionMetrics owns a private registry so tests and multiple servers in
// one process do not collide on the global one.
type SessionMetrics struct {
	registry      *prometheus.Registry
	decisions     *prometheus.CounterVec
	logins        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

func NewSessionMetrics(namespace string) *SessionMetrics {
	m := &SessionMetrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_decisions_total",
			Help:      "Token validation decisions by platform, deciding rule and outcome.",
		}, []string{"platform", "rule", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Registered logins by platform.",
		}, []string{"platform"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Previous sessions invalidated by a newer login, by platform.",
		}, []string{"platform"}),
	}

	m.registry.MustRegister(
		m.decisions,
		m.logins,
		m.invalidations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *SessionMetrics) ObserveDecision(platform, rule string, allowed bool) {
	outcome := OutcomeReject
	if allowed {
		outcome = OutcomeAllow
	}
	m.decisions.WithLabelValues(platform, rule, outcome).Inc()
}

func (m *SessionMetrics) ObserveLogin(platform string) {
	m.logins.WithLabelValues(platform).Inc()
}

func (m *SessionMetrics) ObserveInvalidation(platform string) {
	m.invalidations.WithLabelValues(platform).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *SessionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
