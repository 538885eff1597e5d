package history

import (
	"context"
	"sync"

	"github.com/aida/autonomy/internal/decision"
)

// MemoryStore is an in-process pattern store. Used in tests and when the
// engine runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes map[decision.Type][]outcome
	comms    map[string]int
}

type outcome struct {
	success    bool
	confidence float64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outcomes: make(map[decision.Type][]outcome),
		comms:    make(map[string]int),
	}
}

// RecordOutcome appends a confirmed outcome for a decision type.
func (s *MemoryStore) RecordOutcome(dt decision.Type, success bool, confidence float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[dt] = append(s.outcomes[dt], outcome{success: success, confidence: confidence})
}

// RecordCommunication increments the communication count for a subject.
func (s *MemoryStore) RecordCommunication(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comms[subjectID]++
}

// HistoricalPatterns summarizes recorded outcomes for a decision type.
func (s *MemoryStore) HistoricalPatterns(ctx context.Context, dt decision.Type, dc *decision.Context) (PatternSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	past := s.outcomes[dt]
	if len(past) == 0 {
		return PatternSummary{SuccessRate: 0.5, AvgConfidence: 0.5, Confidence: summaryConfidence(0)}, nil
	}

	var successes int
	var confSum float64
	for _, o := range past {
		if o.success {
			successes++
		}
		confSum += o.confidence
	}

	n := float64(len(past))
	return PatternSummary{
		SimilarCount:  len(past),
		SuccessRate:   float64(successes) / n,
		AvgConfidence: confSum / n,
		Confidence:    summaryConfidence(len(past)),
	}, nil
}

// CommunicationCount returns the recorded count for a subject.
func (s *MemoryStore) CommunicationCount(ctx context.Context, subjectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comms[subjectID], nil
}

var (
	_ PatternStore  = (*MemoryStore)(nil)
	_ RecordCounter = (*MemoryStore)(nil)
)
