// Package oracle is the client for the external AI scoring service.
//
// The engine treats oracle failures as data, not errors: scorers substitute
// a neutral default when a call fails or times out, so nothing in this
// package needs to be retried or escalated by callers.
package oracle

import (
	"context"

	"github.com/aida/autonomy/internal/decision"
)

// IntentAnalysis is the oracle's read on what a subject is trying to do.
type IntentAnalysis struct {
	IntentScore        float64  `json:"intent_score"`
	PrimaryIntent      string   `json:"primary_intent"`
	UrgencyLevel       string   `json:"urgency_level"`
	RecommendedActions []string `json:"recommended_actions"`
}

// NeutralIntent is the substitute when intent analysis is unavailable.
func NeutralIntent() IntentAnalysis {
	return IntentAnalysis{
		IntentScore:        0.5,
		PrimaryIntent:      "unknown",
		UrgencyLevel:       "medium",
		RecommendedActions: []string{"follow_up_email"},
	}
}

// Oracle scores decision contexts using an external model. Both calls may
// block up to the client's configured timeout and may fail; callers must
// substitute neutral defaults rather than propagate errors.
type Oracle interface {
	Qualify(ctx context.Context, dc *decision.Context) (float64, error)
	AnalyzeIntent(ctx context.Context, dc *decision.Context) (IntentAnalysis, error)
}
