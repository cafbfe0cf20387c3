package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_risk"

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	Assessments      *prometheus.CounterVec   // labels: trigger={city,point}, outcome={success,error,superseded}
	Predictions      *prometheus.CounterVec   // labels: source={rules,model,fallback}, level={Low,Medium,High}
	ModelFallbacks   *prometheus.CounterVec   // labels: fallback={neutral,rules}
	UpstreamRequests *prometheus.CounterVec   // labels: upstream, outcome={success,error,canceled,circuit_open}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream
	ActiveSessions   prometheus.Gauge
	SessionsEvicted  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Assessments,
		m.Predictions,
		m.ModelFallbacks,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ActiveSessions,
		m.SessionsEvicted,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Assessments by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions by producing path and risk level.",
		}, []string{"source", "level"}),
		ModelFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fallbacks_total",
			Help:      "Failed inference calls by fallback used.",
		}, []string{"fallback"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound requests by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Idle sessions removed by the sweeper.",
		}),
	}
}

func (m *Metrics) RecordAssessment(trigger, outcome string) {
	m.Assessments.WithLabelValues(trigger, outcome).Inc()
}

func (m *Metrics) RecordPrediction(source, level string) {
	m.Predictions.WithLabelValues(source, level).Inc()
}

func (m *Metrics) RecordModelFallback(fallback string) {
	m.ModelFallbacks.WithLabelValues(fallback).Inc()
}

func (m *Metrics) ObserveUpstream(upstream, outcome string, elapsed time.Duration) {
	m.UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(upstream).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordSweep(evicted, remaining int) {
	m.SessionsEvicted.Add(float64(evicted))
	m.ActiveSessions.Set(float64(remaining))
}
