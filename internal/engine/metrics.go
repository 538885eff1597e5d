package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the decision engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Decision metrics
	DecisionTotal    *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec

	// Score metrics
	CompositeScore *prometheus.HistogramVec
	Confidence     *prometheus.HistogramVec

	// Gate metrics
	GateBlocks  *prometheus.CounterVec
	Escalations *prometheus.CounterVec

	// Risk metrics
	RiskFactors *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		DecisionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autonomy_decisions_total",
				Help: "Total number of decisions processed by the engine",
			},
			[]string{"decision_type", "status"}, // status: executed, blocked, error, not_implemented
		),

		DecisionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autonomy_decision_duration_seconds",
				Help:    "Duration of full decision pipeline runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"decision_type"},
		),

		CompositeScore: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autonomy_composite_score",
				Help:    "Weighted composite score produced per decision",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"decision_type"},
		),

		Confidence: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autonomy_confidence",
				Help:    "Confidence score produced per decision",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
			[]string{"decision_type"},
		),

		GateBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autonomy_gate_blocks_total",
				Help: "Total number of decisions blocked by the autonomy gate",
			},
			[]string{"decision_type", "check"}, // check: level, confidence, custom_rule, business_hours
		),

		Escalations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autonomy_escalations_total",
				Help: "Total number of decisions escalated to a human",
			},
			[]string{"decision_type"},
		),

		RiskFactors: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autonomy_risk_factor_count",
				Help:    "Number of risk factors detected per decision",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
			[]string{"decision_type"},
		),
	}
}

// RecordDecision records a completed decision run
func (m *Metrics) RecordDecision(decisionType, status string, duration float64) {
	if m == nil {
		return
	}
	m.DecisionTotal.WithLabelValues(decisionType, status).Inc()
	m.DecisionDuration.WithLabelValues(decisionType).Observe(duration)
}

// RecordScores records the composite and confidence scores for a decision
func (m *Metrics) RecordScores(decisionType string, composite, confidence float64) {
	if m == nil {
		return
	}
	m.CompositeScore.WithLabelValues(decisionType).Observe(composite)
	m.Confidence.WithLabelValues(decisionType).Observe(confidence)
}

// RecordGateBlock records a gate rejection by failing check
func (m *Metrics) RecordGateBlock(decisionType, check string) {
	if m == nil {
		return
	}
	m.GateBlocks.WithLabelValues(decisionType, check).Inc()
}

// RecordEscalation records an escalation to human review
func (m *Metrics) RecordEscalation(decisionType string) {
	if m == nil {
		return
	}
	m.Escalations.WithLabelValues(decisionType).Inc()
}

// RecordRiskFactors records how many risk factors a decision carried
func (m *Metrics) RecordRiskFactors(decisionType string, count int) {
	if m == nil {
		return
	}
	m.RiskFactors.WithLabelValues(decisionType).Observe(float64(count))
}
