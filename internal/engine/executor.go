package engine

import (
	"fmt"

	"github.com/aida/autonomy/internal/autonomy"
	"github.com/aida/autonomy/internal/decision"
	"github.com/aida/autonomy/internal/scoring"
)

// Decision outcome identifiers per decision type.
const (
	OutcomeQualify = "qualify"
	OutcomeReject  = "reject"
	OutcomeReview  = "review"

	OutcomeApproveProgression = "approve_progression"
	OutcomeApproveConditional = "approve_with_conditions"
	OutcomeRequireReview      = "require_review"

	OutcomeSendImmediately  = "send_immediately"
	OutcomeSendWithTracking = "send_with_tracking"
	OutcomeRequireApproval  = "require_approval"

	OutcomeApproveUpdate = "approve_update"
)

// LevelThreshold is the readiness/confidence bar for one autonomy level on
// the progression path.
type LevelThreshold struct {
	Readiness  float64 `yaml:"readiness"`
	Confidence float64 `yaml:"confidence"`
}

// ProgressionPolicy maps each autonomy level to its progression threshold.
// Higher levels accept lower readiness; the defaults step linearly from 0.9
// at level 1 down to 0.5 at level 5.
type ProgressionPolicy map[decision.AutonomyLevel]LevelThreshold

// DefaultProgressionPolicy returns the standard per-level thresholds.
func DefaultProgressionPolicy() ProgressionPolicy {
	return ProgressionPolicy{
		decision.LevelDraft:      {Readiness: 0.9, Confidence: 0.9},
		decision.LevelAssisted:   {Readiness: 0.8, Confidence: 0.8},
		decision.LevelSupervised: {Readiness: 0.7, Confidence: 0.7},
		decision.LevelDelegated:  {Readiness: 0.6, Confidence: 0.6},
		decision.LevelAutonomous: {Readiness: 0.5, Confidence: 0.5},
	}
}

// For returns the threshold for a level, falling back to the most
// conservative bar for anything unknown.
func (p ProgressionPolicy) For(level decision.AutonomyLevel) LevelThreshold {
	if t, ok := p[level]; ok {
		return t
	}
	return LevelThreshold{Readiness: 0.9, Confidence: 0.9}
}

// outcome is what the executor hands back to the engine for one permitted
// decision.
type outcome struct {
	Status             decision.Status
	Decision           string
	Reason             string
	NextActions        []string
	RequiresEscalation bool
	Details            map[string]any
}

// Executor applies the per-type rule tables mapping (score, confidence) to
// an outcome. It performs no side effects; the engine owns logging, audit,
// and event publication.
type Executor struct {
	Progression ProgressionPolicy
}

// NewExecutor builds an executor with the default progression policy.
func NewExecutor() *Executor {
	return &Executor{Progression: DefaultProgressionPolicy()}
}

// Execute routes a permitted decision through its type's rule table.
// Unrecognized types resolve to not_implemented with escalation.
func (e *Executor) Execute(
	dt decision.Type,
	dc *decision.Context,
	dims map[string]scoring.Score,
	riskFactors []string,
	composite, confidence float64,
	level decision.AutonomyLevel,
	cfg *autonomy.Config,
) outcome {
	switch dt {
	case decision.TypeLeadQualification:
		return e.qualification(dc, composite, confidence, level)
	case decision.TypeDealProgression:
		return e.progression(dc, dims, riskFactors, confidence, level)
	case decision.TypeCommunicationSend:
		return e.communication(dc, dims, confidence)
	case decision.TypeValueUpdate:
		return e.valueUpdate(dc, confidence, cfg)
	default:
		return outcome{
			Status:             decision.StatusNotImplemented,
			Decision:           decision.EscalateToHuman,
			Reason:             fmt.Sprintf("decision type %s not implemented", dt),
			RequiresEscalation: true,
		}
	}
}

// qualification applies confidence-banded thresholds: the more confident the
// scoring run, the lower the bar to qualify and the higher the bar to
// reject outright.
func (e *Executor) qualification(dc *decision.Context, composite, confidence float64, level decision.AutonomyLevel) outcome {
	score := composite
	// An upstream qualification run may carry its score in the context;
	// when present it wins over the engine's own composite.
	if v, ok := dc.Float("qualification_score"); ok {
		score = v
	}

	var qualifyAt, rejectAt float64
	switch {
	case confidence > 0.8:
		qualifyAt, rejectAt = 0.6, 0.3
	case confidence > 0.6:
		qualifyAt, rejectAt = 0.7, 0.2
	default:
		qualifyAt, rejectAt = 0.8, 0.15
	}

	var verdict string
	switch {
	case score >= qualifyAt:
		verdict = OutcomeQualify
	case score <= rejectAt:
		verdict = OutcomeReject
	default:
		verdict = OutcomeReview
	}

	return outcome{
		Status:             decision.StatusExecuted,
		Decision:           verdict,
		Reason:             fmt.Sprintf("qualification score %.2f at confidence %.2f", score, confidence),
		NextActions:        qualificationActions(verdict, level, dc.String("source")),
		RequiresEscalation: verdict == OutcomeReview && confidence < 0.7,
		Details: map[string]any{
			"qualification_score": score,
			"qualify_threshold":   qualifyAt,
			"reject_threshold":    rejectAt,
		},
	}
}

// progression is double-gated: the per-level policy bar must clear first,
// then readiness and risk bands choose the outcome.
func (e *Executor) progression(dc *decision.Context, dims map[string]scoring.Score, riskFactors []string, confidence float64, level decision.AutonomyLevel) outcome {
	readiness := 0.5
	if s, ok := dims[scoring.DimReadiness]; ok {
		readiness = s.Value
	}
	riskScore := float64(len(riskFactors)) / 10

	details := map[string]any{
		"from_stage": dc.String("current_stage"),
		"to_stage":   dc.String("proposed_stage"),
		"readiness":  readiness,
		"risk_score": riskScore,
	}

	bar := e.Progression.For(level)
	if readiness < bar.Readiness || confidence < bar.Confidence {
		details["level_readiness_bar"] = bar.Readiness
		details["level_confidence_bar"] = bar.Confidence
		return outcome{
			Status:   decision.StatusExecuted,
			Decision: OutcomeRequireReview,
			Reason: fmt.Sprintf("below L%d progression bar (readiness %.2f/%.2f, confidence %.2f/%.2f)",
				level, readiness, bar.Readiness, confidence, bar.Confidence),
			NextActions:        progressionActions(OutcomeRequireReview),
			RequiresEscalation: true,
			Details:            details,
		}
	}

	var verdict string
	switch {
	case readiness >= 0.8 && riskScore < 0.3:
		verdict = OutcomeApproveProgression
	case readiness >= 0.6 && riskScore < 0.5:
		verdict = OutcomeApproveConditional
	default:
		verdict = OutcomeRequireReview
	}

	return outcome{
		Status:             decision.StatusExecuted,
		Decision:           verdict,
		Reason:             fmt.Sprintf("readiness %.2f with risk score %.2f", readiness, riskScore),
		NextActions:        progressionActions(verdict),
		RequiresEscalation: verdict == OutcomeRequireReview,
		Details:            details,
	}
}

func (e *Executor) communication(dc *decision.Context, dims map[string]scoring.Score, confidence float64) outcome {
	contentScore := 0.5
	if s, ok := dims[scoring.DimContentQuality]; ok {
		contentScore = s.Value
	}

	var verdict string
	switch {
	case confidence > 0.8 && contentScore > 0.7:
		verdict = OutcomeSendImmediately
	case confidence > 0.6 && contentScore > 0.5:
		verdict = OutcomeSendWithTracking
	default:
		verdict = OutcomeRequireApproval
	}

	return outcome{
		Status:             decision.StatusExecuted,
		Decision:           verdict,
		Reason:             fmt.Sprintf("content score %.2f at confidence %.2f", contentScore, confidence),
		NextActions:        communicationActions(verdict),
		RequiresEscalation: verdict == OutcomeRequireApproval,
		Details: map[string]any{
			"communication_type": dc.String("type"),
			"content_score":      contentScore,
		},
	}
}

// valueUpdate is the one type where the configured value limit hard-blocks
// rather than being advisory.
func (e *Executor) valueUpdate(dc *decision.Context, confidence float64, cfg *autonomy.Config) outcome {
	value, _ := dc.Float("value")
	if v, ok := dc.Float("proposed_value"); ok {
		value = v
	}

	if limit := cfg.ValueLimits.MaxDealValue; limit > 0 && value > limit {
		return outcome{
			Status:             decision.StatusBlocked,
			Decision:           decision.EscalateToHuman,
			Reason:             fmt.Sprintf("proposed value %.2f exceeds configured limit %.2f", value, limit),
			NextActions:        []string{"request_limit_override", "notify_owner"},
			RequiresEscalation: true,
			Details:            map[string]any{"proposed_value": value, "value_limit": limit},
		}
	}

	var verdict string
	if confidence > 0.7 {
		verdict = OutcomeApproveUpdate
	} else {
		verdict = OutcomeRequireReview
	}

	return outcome{
		Status:             decision.StatusExecuted,
		Decision:           verdict,
		Reason:             fmt.Sprintf("value update %.2f at confidence %.2f", value, confidence),
		NextActions:        valueUpdateActions(verdict),
		RequiresEscalation: verdict == OutcomeRequireReview,
		Details:            map[string]any{"proposed_value": value},
	}
}
