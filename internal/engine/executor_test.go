package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/scoring"
)

func bareContext(attrs map[string]any) *decision.Context {
	return decision.NewContext("subject-1", "user-1", time.Now(), attrs)
}

func TestQualificationThresholdsLoosenWithConfidence(t *testing.T) {
	exec := NewExecutor()

	tests := []struct {
		name       string
		score      float64
		confidence float64
		want       string
		escalates  bool
	}{
		{"high confidence qualifies at 0.75", 0.75, 0.85, OutcomeQualify, false},
		{"medium confidence still qualifies at 0.75", 0.75, 0.65, OutcomeQualify, false},
		{"low confidence needs 0.8 to qualify", 0.75, 0.5, OutcomeReview, true},
		{"high confidence rejects at 0.25", 0.25, 0.85, OutcomeReject, false},
		{"medium confidence holds 0.25 for review", 0.25, 0.65, OutcomeReview, true},
		{"borderline reviews without escalation when confident", 0.5, 0.85, OutcomeReview, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := bareContext(map[string]any{"qualification_score": tt.score})
			out := exec.qualification(dc, 0, tt.confidence, decision.LevelSupervised)

			assert.Equal(t, decision.StatusExecuted, out.Status)
			assert.Equal(t, tt.want, out.Decision)
			assert.Equal(t, tt.escalates, out.RequiresEscalation)
		})
	}
}

func TestQualificationFallsBackToComposite(t *testing.T) {
	exec := NewExecutor()

	out := exec.qualification(bareContext(nil), 0.72, 0.85, decision.LevelSupervised)
	assert.Equal(t, OutcomeQualify, out.Decision)
	assert.Equal(t, 0.72, out.Details["qualification_score"])
}

func TestQualificationActionsScaleWithAutonomy(t *testing.T) {
	draft := qualificationActions(OutcomeQualify, decision.LevelDraft, "")
	assert.Contains(t, draft, "notify_sales_team")
	assert.NotContains(t, draft, "auto_assign_to_sales")

	delegated := qualificationActions(OutcomeQualify, decision.LevelDelegated, "")
	assert.Contains(t, delegated, "auto_assign_to_sales")
	assert.Contains(t, delegated, "create_deal")

	prioritized := qualificationActions(OutcomeQualify, decision.LevelSupervised, "pricing_page")
	assert.Equal(t, "priority_sales_contact", prioritized[0])
}

func TestProgressionBands(t *testing.T) {
	exec := NewExecutor()
	policy := exec.Progression

	tests := []struct {
		name      string
		readiness float64
		risks     []string
		want      string
	}{
		{"ready and low risk", 0.85, nil, OutcomeApproveProgression},
		{"ready but risky", 0.85, []string{RiskHighValue, RiskHighUrgency, RiskStaleDeal}, OutcomeApproveConditional},
		{"moderately ready", 0.72, nil, OutcomeApproveConditional},
		{"too risky", 0.72, make([]string, 5), OutcomeRequireReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := map[string]scoring.Score{scoring.DimReadiness: scoring.Ok(tt.readiness)}
			out := exec.progression(bareContext(nil), dims, tt.risks, 0.75, decision.LevelAutonomous)
			assert.Equal(t, tt.want, out.Decision)
		})
	}

	// Policy untouched by the table runs.
	assert.Equal(t, policy, exec.Progression)
}

func TestProgressionPolicyInterpolation(t *testing.T) {
	policy := DefaultProgressionPolicy()

	assert.Equal(t, LevelThreshold{Readiness: 0.9, Confidence: 0.9}, policy.For(decision.LevelDraft))
	assert.Equal(t, LevelThreshold{Readiness: 0.7, Confidence: 0.7}, policy.For(decision.LevelSupervised))
	assert.Equal(t, LevelThreshold{Readiness: 0.5, Confidence: 0.5}, policy.For(decision.LevelAutonomous))

	// Unknown levels get the most conservative bar.
	assert.Equal(t, LevelThreshold{Readiness: 0.9, Confidence: 0.9}, policy.For(0))
}

func TestCommunicationBands(t *testing.T) {
	exec := NewExecutor()

	tests := []struct {
		confidence float64
		content    float64
		want       string
		escalates  bool
	}{
		{0.85, 0.75, OutcomeSendImmediately, false},
		{0.85, 0.6, OutcomeSendWithTracking, false},
		{0.65, 0.55, OutcomeSendWithTracking, false},
		{0.65, 0.4, OutcomeRequireApproval, true},
		{0.5, 0.9, OutcomeRequireApproval, true},
	}

	for _, tt := range tests {
		dims := map[string]scoring.Score{scoring.DimContentQuality: scoring.Ok(tt.content)}
		out := exec.communication(bareContext(nil), dims, tt.confidence)
		assert.Equal(t, tt.want, out.Decision)
		assert.Equal(t, tt.escalates, out.RequiresEscalation)
	}
}

func TestValueUpdateWithinLimit(t *testing.T) {
	exec := NewExecutor()
	cfg := &autonomy.Config{ValueLimits: autonomy.ValueLimits{MaxDealValue: 50_000}}

	out := exec.valueUpdate(bareContext(map[string]any{"proposed_value": 20_000.0}), 0.8, cfg)
	assert.Equal(t, decision.StatusExecuted, out.Status)
	assert.Equal(t, OutcomeApproveUpdate, out.Decision)
	assert.Contains(t, out.NextActions, "apply_value_change")

	out = exec.valueUpdate(bareContext(map[string]any{"proposed_value": 20_000.0}), 0.6, cfg)
	assert.Equal(t, OutcomeRequireReview, out.Decision)
	assert.True(t, out.RequiresEscalation)
}

func TestValueUpdateNoLimitConfigured(t *testing.T) {
	exec := NewExecutor()

	out := exec.valueUpdate(bareContext(map[string]any{"proposed_value": 900_000.0}), 0.8, &autonomy.Config{})
	assert.Equal(t, OutcomeApproveUpdate, out.Decision)
}

func TestExecuteUnknownType(t *testing.T) {
	exec := NewExecutor()

	out := exec.Execute("mystery", bareContext(nil), nil, nil, 0.5, 0.5, decision.LevelSupervised, &autonomy.Config{})
	assert.Equal(t, decision.StatusNotImplemented, out.Status)
	assert.Equal(t, decision.EscalateToHuman, out.Decision)
	assert.True(t, out.RequiresEscalation)
}
