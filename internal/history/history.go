// Package history provides the historical-pattern store consulted by the
// scoring stage: how similar past decisions of the same type turned out.
package history

import (
	"context"

	"github.com/aida/autonomy/internal/decision"
)

// PatternSummary aggregates past decisions similar to the one in flight.
type PatternSummary struct {
	SimilarCount  int     `json:"similar_decisions"`
	SuccessRate   float64 `json:"success_rate"`
	AvgConfidence float64 `json:"average_confidence"`

	// Confidence expresses how much weight the summary itself deserves —
	// it grows with sample size, independent of the success rate.
	Confidence float64 `json:"confidence"`
}

// Neutral is the low-confidence substitute when the store is unreachable.
func Neutral() PatternSummary {
	return PatternSummary{SuccessRate: 0.5, AvgConfidence: 0.5, Confidence: 0.3}
}

// PatternStore looks up outcomes of similar past decisions. May block; all
// implementations must honor the context deadline.
type PatternStore interface {
	HistoricalPatterns(ctx context.Context, dt decision.Type, dc *decision.Context) (PatternSummary, error)
}

// RecordCounter exposes the read-only relational counts used to enrich
// decision contexts, e.g. how often a subject has been contacted.
type RecordCounter interface {
	CommunicationCount(ctx context.Context, subjectID string) (int, error)
}

// summaryConfidence derives the weight a sample set deserves from its size.
// Caps at 0.9 — historical evidence alone never outweighs fresh signals.
func summaryConfidence(similar int) float64 {
	c := 0.3 + float64(similar)*0.02
	if c > 0.9 {
		c = 0.9
	}
	return c
}
