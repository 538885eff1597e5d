package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aida/autonomy/internal/decision"
)

func entry(id string, confidence float64, escalated bool) *Entry {
	return &Entry{
		ID:                 id,
		Timestamp:          time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC),
		DecisionType:       decision.TypeLeadQualification,
		AutonomyLevel:      decision.LevelSupervised,
		Confidence:         confidence,
		Decision:           "qualify",
		Status:             decision.StatusExecuted,
		SubjectID:          "user-1",
		RequiresEscalation: escalated,
	}
}

func TestAggregateRatesUseConfirmedOutcomesOnly(t *testing.T) {
	entries := []Entry{
		{ID: "a", Confidence: 0.8, Outcome: "success"},
		{ID: "b", Confidence: 0.6, Outcome: "failure", HumanOverride: true},
		{ID: "c", Confidence: 0.7}, // unconfirmed
	}

	m := Aggregate(entries)
	assert.Equal(t, 3, m.TotalDecisions)
	assert.InDelta(t, 0.5, m.SuccessRate, 1e-9)
	assert.InDelta(t, 0.5, m.OverrideRate, 1e-9)
	assert.InDelta(t, 0.7, m.AverageConfidence, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	m := Aggregate(nil)
	assert.Equal(t, 0, m.TotalDecisions)
	assert.Equal(t, 0.0, m.SuccessRate)
}

func TestAdjustmentsIncreaseOnStrongPerformance(t *testing.T) {
	m := Metrics{TotalDecisions: 20, SuccessRate: 0.95, OverrideRate: 0.05}

	adjustments := Adjustments(m)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "increase_autonomy", adjustments[0].Type)
}

func TestAdjustmentsDecreaseOnWeakPerformance(t *testing.T) {
	for _, m := range []Metrics{
		{TotalDecisions: 20, SuccessRate: 0.6, OverrideRate: 0.05},
		{TotalDecisions: 20, SuccessRate: 0.95, OverrideRate: 0.4},
	} {
		adjustments := Adjustments(m)
		require.NotEmpty(t, adjustments)
		last := adjustments[len(adjustments)-1]
		assert.Equal(t, "decrease_autonomy", last.Type)
	}
}

func TestAdjustmentsQuietInMiddleBand(t *testing.T) {
	m := Metrics{TotalDecisions: 20, SuccessRate: 0.85, OverrideRate: 0.15}
	assert.Empty(t, Adjustments(m))
}

func TestAnalyzerEndToEnd(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("a", 0.8, false)))
	require.NoError(t, store.Append(ctx, entry("b", 0.9, false)))
	require.NoError(t, store.Append(ctx, entry("c", 0.7, true)))
	require.NoError(t, store.ConfirmOutcome(ctx, "a", true, false))
	require.NoError(t, store.ConfirmOutcome(ctx, "b", true, false))

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	report, err := NewAnalyzer(store).Analyze(ctx, "user-1", from, to)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Metrics.TotalDecisions)
	assert.Equal(t, 1.0, report.Metrics.SuccessRate)
	assert.InDelta(t, 1.0/3, report.Metrics.EscalationRate, 1e-9)
	assert.Equal(t, 3, report.Metrics.DecisionTypes[decision.TypeLeadQualification])

	require.NotEmpty(t, report.Recommendations)
	assert.Equal(t, "increase_autonomy", report.Recommendations[0].Type)
}

func TestAnalyzerSubjectFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	e := entry("a", 0.8, false)
	require.NoError(t, store.Append(ctx, e))
	other := entry("b", 0.8, false)
	other.SubjectID = "user-2"
	require.NoError(t, store.Append(ctx, other))

	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)

	report, err := NewAnalyzer(store).Analyze(ctx, "user-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metrics.TotalDecisions)
}
