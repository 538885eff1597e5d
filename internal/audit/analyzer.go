package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/aida/autonomy/internal/decision"
)

// Metrics aggregates audit entries over a date range.
type Metrics struct {
	TotalDecisions    int                            `json:"total_decisions"`
	SuccessRate       float64                        `json:"success_rate"`
	OverrideRate      float64                        `json:"override_rate"`
	AverageConfidence float64                        `json:"average_confidence"`
	EscalationRate    float64                        `json:"escalation_rate"`
	DecisionTypes     map[decision.Type]int          `json:"decision_types"`
	AutonomyLevels    map[decision.AutonomyLevel]int `json:"autonomy_levels"`
}

// Insight is a qualitative observation about autonomy performance.
type Insight struct {
	Type    string `json:"type"` // "positive" or "warning"
	Message string `json:"message"`
}

// Adjustment is a suggested autonomy-level change.
type Adjustment struct {
	Type           string  `json:"type"` // "increase_autonomy" or "decrease_autonomy"
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

// PerformanceReport is the full output of a performance analysis.
type PerformanceReport struct {
	From            time.Time    `json:"from"`
	To              time.Time    `json:"to"`
	Metrics         Metrics      `json:"metrics"`
	Insights        []Insight    `json:"insights"`
	Recommendations []Adjustment `json:"recommendations"`
}

// Analyzer aggregates audit history into success and override rates and
// proposes autonomy-level adjustments.
type Analyzer struct {
	store Store
}

// NewAnalyzer creates an analyzer over the given audit store.
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// Analyze builds a performance report for a subject (or all subjects when
// subjectID is empty) over [from, to].
func (a *Analyzer) Analyze(ctx context.Context, subjectID string, from, to time.Time) (*PerformanceReport, error) {
	entries, err := a.store.List(ctx, subjectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load audit entries: %w", err)
	}

	metrics := Aggregate(entries)
	insights := Insights(metrics)

	return &PerformanceReport{
		From:            from,
		To:              to,
		Metrics:         metrics,
		Insights:        insights,
		Recommendations: Adjustments(metrics),
	}, nil
}

// Aggregate computes raw metrics from a slice of entries. Success and
// override rates consider only entries whose outcome has been confirmed.
func Aggregate(entries []Entry) Metrics {
	m := Metrics{
		DecisionTypes:  make(map[decision.Type]int),
		AutonomyLevels: make(map[decision.AutonomyLevel]int),
	}
	if len(entries) == 0 {
		return m
	}

	var confirmed, successes, overrides, escalations int
	var confSum float64

	for _, e := range entries {
		m.TotalDecisions++
		m.DecisionTypes[e.DecisionType]++
		m.AutonomyLevels[e.AutonomyLevel]++
		confSum += e.Confidence

		if e.RequiresEscalation {
			escalations++
		}
		if e.Outcome != "" {
			confirmed++
			if e.Outcome == "success" {
				successes++
			}
			if e.HumanOverride {
				overrides++
			}
		}
	}

	m.AverageConfidence = confSum / float64(m.TotalDecisions)
	m.EscalationRate = float64(escalations) / float64(m.TotalDecisions)
	if confirmed > 0 {
		m.SuccessRate = float64(successes) / float64(confirmed)
		m.OverrideRate = float64(overrides) / float64(confirmed)
	}
	return m
}

// Insights derives qualitative observations from aggregated metrics.
func Insights(m Metrics) []Insight {
	var insights []Insight
	if m.TotalDecisions == 0 {
		return insights
	}

	if m.SuccessRate > 0.9 {
		insights = append(insights, Insight{
			Type:    "positive",
			Message: fmt.Sprintf("Excellent autonomy performance with %.1f%% success rate", m.SuccessRate*100),
		})
	} else if m.SuccessRate < 0.7 {
		insights = append(insights, Insight{
			Type:    "warning",
			Message: fmt.Sprintf("Low autonomy success rate: %.1f%%. Consider lowering autonomy levels.", m.SuccessRate*100),
		})
	}

	if m.OverrideRate > 0.3 {
		insights = append(insights, Insight{
			Type:    "warning",
			Message: fmt.Sprintf("High override rate: %.1f%%. Review autonomy thresholds.", m.OverrideRate*100),
		})
	}

	return insights
}

// Adjustments proposes autonomy-level changes: increase when the system is
// consistently right and rarely overridden, decrease when it is wrong or
// second-guessed too often.
func Adjustments(m Metrics) []Adjustment {
	var out []Adjustment
	if m.TotalDecisions == 0 {
		return out
	}

	if m.SuccessRate > 0.9 && m.OverrideRate < 0.1 {
		out = append(out, Adjustment{
			Type:           "increase_autonomy",
			Recommendation: "Consider increasing autonomy levels",
			Confidence:     0.8,
		})
	}
	if m.SuccessRate < 0.7 || m.OverrideRate > 0.3 {
		out = append(out, Adjustment{
			Type:           "decrease_autonomy",
			Recommendation: "Consider decreasing autonomy levels or increasing confidence thresholds",
			Confidence:     0.9,
		})
	}
	return out
}
