package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aida/autonomy/internal/audit"
	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/events"
	"github.com/aida/autonomy/internal/history"
	"github.com/aida/autonomy/internal/oracle"
	"github.com/aida/autonomy/internal/scoring"
)

// businessHours is a Tuesday at 11:00, inside every time window.
var businessHours = time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) scoring.Clock {
	return func() time.Time { return at }
}

type testRig struct {
	engine *Engine
	audit  *audit.MemoryStore
	bus    *events.Bus
	cache  *autonomy.ConfigCache
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	scores := scoring.NewSet(
		nil, nil,
		oracle.NewStaticOracle(0.8),
		history.NewMemoryStore(),
		history.NewMemoryStore(),
		fixedClock(businessHours),
	)
	auditStore := audit.NewMemoryStore()
	bus := events.NewBus()
	cache := autonomy.NewConfigCache(autonomy.NewMemoryStore())

	return &testRig{
		engine: New(scores, cache, auditStore, bus, WithClock(fixedClock(businessHours))),
		audit:  auditStore,
		bus:    bus,
		cache:  cache,
	}
}

func leadContext(extra map[string]any) *decision.Context {
	attrs := map[string]any{
		"email":      "jane@acmecorp.com",
		"first_name": "Jane",
		"last_name":  "Doe",
		"company":    "Acme Corp",
		"phone":      "+15550100",
		"source":     "demo_request",
		"utm_params": map[string]string{
			"utm_campaign": "demo",
			"utm_medium":   "website",
			"utm_source":   "google",
		},
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return decision.NewContext("lead-1", "user-1", businessHours, attrs)
}

func configure(t *testing.T, rig *testRig, process string, level decision.AutonomyLevel, threshold float64) {
	t.Helper()
	_, err := rig.engine.ConfigureAutonomy(context.Background(), &autonomy.Config{
		SubjectID:           "user-1",
		Process:             process,
		Level:               level,
		ConfidenceThreshold: threshold,
	})
	require.NoError(t, err)
}

func TestQualifyDemoRequestEndToEnd(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "lead_qualification", decision.LevelSupervised, 0.7)

	decisions := rig.bus.Subscribe(events.SubjectDecision)

	dc := leadContext(map[string]any{"qualification_score": 0.8})
	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, dc, decision.LevelSupervised, "user-1")

	require.NotNil(t, d)
	assert.Equal(t, decision.StatusExecuted, d.Status)
	assert.Equal(t, OutcomeQualify, d.Decision)
	assert.False(t, d.RequiresEscalation)
	assert.Greater(t, d.Confidence, 0.7)
	assert.NotEmpty(t, d.Scores)

	// demo_request prepends the demo scheduling action.
	require.NotEmpty(t, d.NextActions)
	assert.Equal(t, "schedule_demo", d.NextActions[0])
	assert.Contains(t, d.NextActions, "create_deal")

	// Every decision lands in the audit log and on the event bus.
	assert.Equal(t, 1, rig.audit.Len())
	select {
	case ev := <-decisions:
		assert.Equal(t, events.DecisionSubject("lead_qualification"), ev.Subject)
		assert.Equal(t, "lead-1", ev.ContextID)
	default:
		t.Fatal("expected a decision event")
	}
}

func TestDefaultConfigBlocksModerateConfidence(t *testing.T) {
	rig := newTestRig(t)
	escalations := rig.bus.Subscribe(events.SubjectEscalation)

	// No config stored: defaults are level 1 with a 0.8 threshold, which
	// this context's confidence does not clear.
	dc := leadContext(map[string]any{"qualification_score": 0.8})
	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, dc, decision.LevelDraft, "user-1")

	assert.Equal(t, decision.StatusBlocked, d.Status)
	assert.Equal(t, decision.EscalateToHuman, d.Decision)
	assert.True(t, d.RequiresEscalation)
	assert.Contains(t, d.Reason, "threshold")

	assert.Equal(t, 1, rig.audit.Len())
	select {
	case <-escalations:
	default:
		t.Fatal("expected an escalation event")
	}
}

func TestLevelBelowConfigMinimumBlocks(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "lead_qualification", decision.LevelSupervised, 0.5)

	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, leadContext(nil), decision.LevelAssisted, "user-1")

	assert.Equal(t, decision.StatusBlocked, d.Status)
	assert.Contains(t, d.Reason, "level")
}

func TestInvalidAutonomyLevelBlocks(t *testing.T) {
	rig := newTestRig(t)

	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, leadContext(nil), 9, "user-1")

	assert.Equal(t, decision.StatusBlocked, d.Status)
	assert.True(t, d.RequiresEscalation)
}

func TestUnrecognizedTypeNotImplemented(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "price_override", decision.LevelDraft, 0.2)

	d := rig.engine.MakeDecision(context.Background(),
		decision.Type("price_override"), leadContext(nil), decision.LevelDraft, "user-1")

	assert.Equal(t, decision.StatusNotImplemented, d.Status)
	assert.Equal(t, decision.EscalateToHuman, d.Decision)
	assert.True(t, d.RequiresEscalation)
}

func TestEngineFaultYieldsSafeFallback(t *testing.T) {
	// A nil scorer set makes the pipeline panic; the caller still gets a
	// structurally valid decision.
	auditStore := audit.NewMemoryStore()
	eng := New(nil, autonomy.NewConfigCache(nil), auditStore, nil, WithClock(fixedClock(businessHours)))

	d := eng.MakeDecision(context.Background(),
		decision.TypeLeadQualification, leadContext(nil), decision.LevelSupervised, "user-1")

	require.NotNil(t, d)
	assert.Equal(t, decision.StatusError, d.Status)
	assert.Equal(t, decision.EscalateToHuman, d.Decision)
	assert.Equal(t, 0.0, d.Confidence)
	assert.True(t, d.RequiresEscalation)
	assert.NotEmpty(t, d.ID)
}

func TestDecisionsAreDeterministic(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "lead_qualification", decision.LevelSupervised, 0.5)

	dc := leadContext(map[string]any{"qualification_score": 0.8})
	first := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, dc, decision.LevelSupervised, "user-1")
	second := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, dc, decision.LevelSupervised, "user-1")

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.CompositeScore, second.CompositeScore)
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.NextActions, second.NextActions)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestProgressionApprovedAtModerateAutonomy(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "deal_progression", decision.LevelSupervised, 0.65)

	dc := leadContext(map[string]any{
		"source":                "hubspot",
		"progression_readiness": 0.85,
		"current_stage":         "proposal",
		"proposed_stage":        "negotiation",
	})
	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeDealProgression, dc, decision.LevelSupervised, "user-1")

	assert.Equal(t, decision.StatusExecuted, d.Status)
	assert.Equal(t, OutcomeApproveProgression, d.Decision)
	assert.False(t, d.RequiresEscalation)
	assert.Equal(t, "proposal", d.Details["from_stage"])
	assert.Equal(t, "negotiation", d.Details["to_stage"])
	assert.Contains(t, d.NextActions, "advance_stage")
}

func TestProgressionLevelBarAtDraftAutonomy(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "deal_progression", decision.LevelDraft, 0.65)

	// Readiness 0.85 clears the band rules but not the L1 bar of 0.9.
	dc := leadContext(map[string]any{
		"source":                "hubspot",
		"progression_readiness": 0.85,
	})
	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeDealProgression, dc, decision.LevelDraft, "user-1")

	assert.Equal(t, decision.StatusExecuted, d.Status)
	assert.Equal(t, OutcomeRequireReview, d.Decision)
	assert.True(t, d.RequiresEscalation)
	assert.Contains(t, d.Reason, "L1")
}

func TestValueUpdateEnforcesLimit(t *testing.T) {
	rig := newTestRig(t)
	_, err := rig.engine.ConfigureAutonomy(context.Background(), &autonomy.Config{
		SubjectID:           "user-1",
		Process:             "value_update",
		Level:               decision.LevelSupervised,
		ConfidenceThreshold: 0.5,
		ValueLimits:         autonomy.ValueLimits{MaxDealValue: 10_000},
	})
	require.NoError(t, err)

	dc := leadContext(map[string]any{"proposed_value": 25_000.0})
	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeValueUpdate, dc, decision.LevelSupervised, "user-1")

	assert.Equal(t, decision.StatusBlocked, d.Status)
	assert.Equal(t, decision.EscalateToHuman, d.Decision)
	assert.True(t, d.RequiresEscalation)
	assert.Contains(t, d.Reason, "limit")
}

func TestConfigureAutonomyRejectsInvalidCombination(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.engine.ConfigureAutonomy(context.Background(), &autonomy.Config{
		SubjectID:           "user-1",
		Process:             "lead_qualification",
		Level:               decision.LevelAutonomous,
		ConfidenceThreshold: 0.5,
	})
	assert.Error(t, err)
}

func TestGetPerformanceDefaultsRange(t *testing.T) {
	rig := newTestRig(t)
	configure(t, rig, "lead_qualification", decision.LevelSupervised, 0.5)

	d := rig.engine.MakeDecision(context.Background(),
		decision.TypeLeadQualification, leadContext(map[string]any{"qualification_score": 0.9}),
		decision.LevelSupervised, "user-1")
	require.NoError(t, rig.engine.ConfirmOutcome(context.Background(), d.ID, true, false))

	report, err := rig.engine.GetPerformance(context.Background(), "user-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metrics.TotalDecisions)
	assert.Equal(t, 1.0, report.Metrics.SuccessRate)
}
