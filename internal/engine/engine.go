// Package engine runs the full autonomy decision pipeline: dimension
// scoring, composite and confidence computation, risk assessment, the
// policy gate, and per-type execution. Every call returns a well-formed
// Decision; escalation to a human is the universal fallback for denial,
// unrecognized types, and internal faults.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aida/autonomy/internal/audit"
	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/events"
	"github.com/aida/autonomy/internal/scoring"
)

const eventSource = "autonomy-engine"

// Engine coordinates one decision end to end. Decisions are stateless units
// of work; many may run concurrently. Shared state is limited to the config
// cache (read-mostly) and the append-only audit store.
type Engine struct {
	scores   *scoring.Set
	configs  *autonomy.ConfigCache
	auditLog audit.Store
	analyzer *audit.Analyzer
	emitter  events.EventEmitter
	exec     *Executor
	risk     RiskThresholds
	metrics  *Metrics
	now      scoring.Clock
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the wall clock, used by tests for deterministic
// time-restriction and urgency behavior.
func WithClock(now scoring.Clock) Option {
	return func(e *Engine) { e.now = now }
}

// WithProgressionPolicy overrides the per-level progression thresholds.
func WithProgressionPolicy(p ProgressionPolicy) Option {
	return func(e *Engine) { e.exec.Progression = p }
}

// WithRiskThresholds overrides the risk-factor trip points.
func WithRiskThresholds(t RiskThresholds) Option {
	return func(e *Engine) { e.risk = t }
}

// New builds an engine. scores, configs, and auditLog are required; a nil
// emitter gets an in-memory bus.
func New(
	scores *scoring.Set,
	configs *autonomy.ConfigCache,
	auditLog audit.Store,
	emitter events.EventEmitter,
	opts ...Option,
) *Engine {
	if emitter == nil {
		emitter = events.NewBus()
	}
	e := &Engine{
		scores:   scores,
		configs:  configs,
		auditLog: auditLog,
		analyzer: audit.NewAnalyzer(auditLog),
		emitter:  emitter,
		exec:     NewExecutor(),
		risk:     DefaultRiskThresholds(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MakeDecision runs the decision pipeline. It never returns an error: any
// internal fault is caught and converted into a safe fallback Decision that
// escalates to a human.
func (e *Engine) MakeDecision(
	ctx context.Context,
	dt decision.Type,
	dc *decision.Context,
	level decision.AutonomyLevel,
	userID string,
) (d *decision.Decision) {
	started := e.now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("decision pipeline fault",
				"decision_type", dt,
				"context_id", dc.ID(),
				"panic", r)
			d = e.faultDecision(dt, dc, level, started)
			e.metrics.RecordDecision(string(dt), string(decision.StatusError), e.now().Sub(started).Seconds())
		}
	}()

	if !level.Valid() {
		d = e.finish(ctx, dc, userID, started, &decision.Decision{
			ID:                 uuid.NewString(),
			Type:               dt,
			Status:             decision.StatusBlocked,
			Decision:           decision.EscalateToHuman,
			Reason:             "invalid autonomy level",
			RequiresEscalation: true,
			AutonomyLevel:      level,
			ContextID:          dc.ID(),
		})
		return d
	}

	subject := userID
	if subject == "" {
		subject = dc.ID()
	}
	cfg := e.configs.GetConfig(ctx, subject, string(dt))

	dims, patterns := e.scores.Dimensions(ctx, dt, dc)
	composite := scoring.Composite(dims, e.scores.Tables().WeightsFor(dt))
	confidence := e.scores.Confidence(dims, patterns, dc)

	riskFactors := e.risk.Assess(dt, dc)
	// The gate sees confidence net of the risk penalty; the raw value is
	// what the decision reports.
	gated := scoring.Clamp(confidence-RiskPenalty(len(riskFactors)), 0.1, 1.0)

	e.metrics.RecordScores(string(dt), composite, confidence)
	e.metrics.RecordRiskFactors(string(dt), len(riskFactors))

	gate := EvaluateGate(cfg, dt, level, gated, dc, e.now())
	if !gate.Permitted {
		e.metrics.RecordGateBlock(string(dt), gate.FailedCheck)
		d = e.finish(ctx, dc, subject, started, &decision.Decision{
			ID:                 uuid.NewString(),
			Type:               dt,
			Status:             decision.StatusBlocked,
			Decision:           decision.EscalateToHuman,
			Reason:             gate.Reason,
			Confidence:         confidence,
			CompositeScore:     composite,
			Scores:             scoreValues(dims),
			RiskFactors:        riskFactors,
			RequiresEscalation: true,
			AutonomyLevel:      level,
			ContextID:          dc.ID(),
			Details:            map[string]any{"gate": gate},
		})
		return d
	}

	out := e.exec.Execute(dt, dc, dims, riskFactors, composite, confidence, level, cfg)

	d = e.finish(ctx, dc, subject, started, &decision.Decision{
		ID:                 uuid.NewString(),
		Type:               dt,
		Status:             out.Status,
		Decision:           out.Decision,
		Reason:             out.Reason,
		Confidence:         confidence,
		CompositeScore:     composite,
		Scores:             scoreValues(dims),
		RiskFactors:        riskFactors,
		NextActions:        out.NextActions,
		RequiresEscalation: out.RequiresEscalation,
		AutonomyLevel:      level,
		ContextID:          dc.ID(),
		Details:            out.Details,
	})
	return d
}

// finish stamps derived fields, records the audit entry, publishes events,
// and logs. It mutates and returns d so MakeDecision can assign through the
// named return inside its recover path.
func (e *Engine) finish(ctx context.Context, dc *decision.Context, subject string, started time.Time, d *decision.Decision) *decision.Decision {
	d.ConfidenceBand = decision.BandFor(d.Confidence)
	d.DecidedAt = e.now()

	if err := e.auditLog.Append(ctx, audit.EntryFor(d, subject)); err != nil {
		slog.Warn("audit append failed", "decision_id", d.ID, "error", err)
	}

	e.metrics.RecordDecision(string(d.Type), string(d.Status), e.now().Sub(started).Seconds())

	e.emitter.Emit(events.DecisionSubject(string(d.Type)), eventSource, dc.ID(), map[string]any{
		"decision_id":   d.ID,
		"decision_type": string(d.Type),
		"status":        string(d.Status),
		"decision":      d.Decision,
		"confidence":    d.Confidence,
	})
	if d.RequiresEscalation {
		e.metrics.RecordEscalation(string(d.Type))
		e.emitter.Emit(events.SubjectEscalation, eventSource, dc.ID(), map[string]any{
			"decision_id":   d.ID,
			"decision_type": string(d.Type),
			"reason":        d.Reason,
			"confidence":    d.Confidence,
			"risk_factors":  d.RiskFactors,
		})
	}

	slog.Info("decision made",
		"decision_id", d.ID,
		"decision_type", d.Type,
		"status", d.Status,
		"decision", d.Decision,
		"confidence", d.Confidence,
		"autonomy_level", d.AutonomyLevel,
		"requires_escalation", d.RequiresEscalation)

	return d
}

// faultDecision is the safe fallback for an internal fault: structurally
// valid, zero confidence, escalated.
func (e *Engine) faultDecision(dt decision.Type, dc *decision.Context, level decision.AutonomyLevel, started time.Time) *decision.Decision {
	return &decision.Decision{
		ID:                 uuid.NewString(),
		Type:               dt,
		Status:             decision.StatusError,
		Decision:           decision.EscalateToHuman,
		Reason:             "internal engine fault",
		Confidence:         0,
		ConfidenceBand:     decision.BandFor(0),
		RequiresEscalation: true,
		AutonomyLevel:      level,
		ContextID:          dc.ID(),
		DecidedAt:          e.now(),
	}
}

// ConfigureAutonomy validates and persists an autonomy configuration for a
// (subject, process) pair. The write is atomic and last-write-wins; the
// cached entry is refreshed on success.
func (e *Engine) ConfigureAutonomy(ctx context.Context, cfg *autonomy.Config) (*autonomy.Config, error) {
	if err := e.configs.Put(ctx, cfg); err != nil {
		return nil, err
	}
	slog.Info("autonomy configured",
		"subject_id", cfg.SubjectID,
		"process", cfg.Process,
		"level", cfg.Level,
		"confidence_threshold", cfg.ConfidenceThreshold)
	return cfg, nil
}

// GetPerformance aggregates audit entries over a date range into metrics,
// insights, and autonomy adjustment recommendations. A zero range defaults
// to the trailing 30 days.
func (e *Engine) GetPerformance(ctx context.Context, subjectID string, from, to time.Time) (*audit.PerformanceReport, error) {
	if to.IsZero() {
		to = e.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return e.analyzer.Analyze(ctx, subjectID, from, to)
}

// ConfirmOutcome records the later-confirmed result of a decision so the
// performance analyzer can compute success and override rates.
func (e *Engine) ConfirmOutcome(ctx context.Context, decisionID string, success, humanOverride bool) error {
	return e.auditLog.ConfirmOutcome(ctx, decisionID, success, humanOverride)
}

func scoreValues(dims map[string]scoring.Score) map[string]float64 {
	out := make(map[string]float64, len(dims))
	for name, s := range dims {
		out[name] = s.Value
	}
	return out
}
