package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the generation module.
type Metrics struct {
	// Generation requests by terminal state
	Outcomes *prometheus.CounterVec

	// Gaps reported by severity and origin (validation or generator)
	Gaps *prometheus.CounterVec

	// Latency of external calls by stage
	StageLatency *prometheus.HistogramVec

	// Documents generated by type
	Documents *prometheus.CounterVec

	// Full request latency
	RequestLatency prometheus.Histogram
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_generation_outcomes_total",
			Help: "Total generation requests by terminal state",
		}, []string{"state"}), // state: "completed", "blocked", "failed", "canceled"

		Gaps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_generation_gaps_total",
			Help: "Total gaps reported by severity and origin",
		}, []string{"severity", "origin"}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexdraft_generation_stage_duration_seconds",
			Help:    "Duration of repository and generator calls by stage",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdraft_documents_generated_total",
			Help: "Total documents generated by type",
		}, []string{"doc_type"}),

		RequestLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexdraft_generation_duration_seconds",
			Help:    "Duration of full validate-and-generate requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// IncrementOutcome records a terminal state.
func (m *Metrics) IncrementOutcome(state string) {
	if m != nil {
		m.Outcomes.WithLabelValues(state).Inc()
	}
}

// AddGaps records n gaps of one severity.
func (m *Metrics) AddGaps(severity, origin string, n int) {
	if m != nil && n > 0 {
		m.Gaps.WithLabelValues(severity, origin).Add(float64(n))
	}
}

// ObserveStageLatency records the duration of one external call.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementDocument(docType string) {
	if m != nil {
		m.Documents.WithLabelValues(docType).Inc()
	}
}

// ObserveRequestLatency records the full request duration.
func (m *Metrics) ObserveRequestLatency(d time.Duration) {
	if m != nil {
		m.RequestLatency.Observe(d.Seconds())
	}
}
