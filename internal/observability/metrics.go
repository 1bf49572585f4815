package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "haven"
	intakeSubsystem  = "intake"
)

// Operation labels.
const (
	OpReply   = "reply"
	OpSummary = "summary"
)

// Outcome labels for backend calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the intake engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// BackendCallsTotal counts backend attempts.
	// Labels: operation (reply, summary), outcome (success, error)
	BackendCallsTotal *prometheus.CounterVec

	// BackendLatencySeconds measures backend call duration.
	// Labels: operation
	BackendLatencySeconds *prometheus.HistogramVec

	// FallbacksTotal counts every fallback trigger.
	// Labels: operation, reason (unavailable, empty_response, malformed_response)
	FallbacksTotal *prometheus.CounterVec

	// SummariesTotal counts produced summaries.
	// Labels: source (backend, fallback), category, severity
	SummariesTotal *prometheus.CounterVec
}

// NewMetrics creates the intake collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: intakeSubsystem,
				Name:      "backend_calls_total",
				Help:      "Generative backend calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		BackendLatencySeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: intakeSubsystem,
				Name:      "backend_latency_seconds",
				Help:      "Generative backend call duration",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"operation"},
		),
		FallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: intakeSubsystem,
				Name:      "fallbacks_total",
				Help:      "Fallback substitutions by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		SummariesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: intakeSubsystem,
				Name:      "summaries_total",
				Help:      "Produced summaries by source, category and severity",
			},
			[]string{"source", "category", "severity"},
		),
	}
}

func (m *Metrics) ObserveBackendCall(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.BackendCallsTotal.WithLabelValues(op, outcome).Inc()
	m.BackendLatencySeconds.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordFallback(op, reason string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) RecordSummary(source, category, severity string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(source, category, severity).Inc()
}
