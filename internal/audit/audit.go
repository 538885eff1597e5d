// Package audit records every decision the engine makes — permitted or
// denied — in an append-only log, and aggregates that history into
// performance metrics and autonomy adjustment recommendations.
package audit

import (
	"context"
	"time"

	"github.com/aida/autonomy/internal/decision"
)

// Entry is the write-once snapshot of one decision. Outcome and
// HumanOverride start empty and are confirmed later, when the real-world
// result of the decision becomes known.
type Entry struct {
	ID                 string                 `json:"id"`
	Timestamp          time.Time              `json:"timestamp"`
	DecisionType       decision.Type          `json:"decision_type"`
	AutonomyLevel      decision.AutonomyLevel `json:"autonomy_level"`
	Confidence         float64                `json:"confidence"`
	CompositeScore     float64                `json:"composite_score"`
	Decision           string                 `json:"decision"`
	Status             decision.Status        `json:"status"`
	ContextID          string                 `json:"context_id"`
	SubjectID          string                 `json:"subject_id,omitempty"`
	RequiresEscalation bool                   `json:"requires_escalation"`

	// Confirmed after the fact; empty until then.
	Outcome       string `json:"outcome,omitempty"` // "success" or "failure"
	HumanOverride bool   `json:"human_override"`
}

// EntryFor snapshots a decision record into an audit entry.
func EntryFor(d *decision.Decision, subjectID string) *Entry {
	return &Entry{
		ID:                 d.ID,
		Timestamp:          d.DecidedAt,
		DecisionType:       d.Type,
		AutonomyLevel:      d.AutonomyLevel,
		Confidence:         d.Confidence,
		CompositeScore:     d.CompositeScore,
		Decision:           d.Decision,
		Status:             d.Status,
		ContextID:          d.ContextID,
		SubjectID:          subjectID,
		RequiresEscalation: d.RequiresEscalation,
	}
}

// Store is the append-only audit sink. Append must be safe for concurrent
// callers; entries are never updated except for outcome confirmation.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, subjectID string, from, to time.Time) ([]Entry, error)
	ConfirmOutcome(ctx context.Context, id string, success, humanOverride bool) error
}
