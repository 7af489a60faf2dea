package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for progressive profiling decisions.
type Metrics struct {
	Decisions          *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	ScreenOverflow     prometheus.Counter
	WriteFailures      *prometheus.CounterVec
	DecisionLatency    *prometheus.HistogramVec
}

// New registers and returns the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profilegate_decisions_total",
			Help: "Decisions taken, labeled by phase, outcome and deny code",
		}, []string{"phase", "outcome", "code"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profilegate_validation_failures_total",
			Help: "Submissions rejected by a screen validator, labeled by screen",
		}, []string{"screen"}),
		ScreenOverflow: factory.NewCounter(prometheus.CounterOpts{
			Name: "profilegate_screen_overflow_total",
			Help: "Interruptions whose pending screens exceeded the per-login maximum",
		}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profilegate_metadata_write_failures_total",
			Help: "Metadata merge-writes that failed, labeled by namespace",
		}, []string{"namespace"}),
		DecisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profilegate_decision_latency_seconds",
			Help:    "Latency of a decision phase in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"phase"}),
	}
}

func (m *Metrics) IncrementDecision(phase, outcome, code string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(phase, outcome, code).Inc()
}

func (m *Metrics) IncrementValidationFailure(screen string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(screen).Inc()
}

func (m *Metrics) IncrementScreenOverflow() {
	if m == nil {
		return
	}
	m.ScreenOverflow.Inc()
}

func (m *Metrics) IncrementWriteFailure(namespace string) {
	if m == nil {
		return
	}
	m.WriteFailures.WithLabelValues(namespace).Inc()
}

// ObserveDecisionLatency records how long a phase took.
func (m *Metrics) ObserveDecisionLatency(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.DecisionLatency.WithLabelValues(phase).Observe(d.Seconds())
}
