package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process audit log for tests and single-node runs.
// Appends are serialized under the mutex so concurrent writers never
// interleave.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory audit log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, subjectID string, from, to time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if subjectID != "" && e.SubjectID != subjectID {
			continue
		}
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) ConfirmOutcome(ctx context.Context, id string, success, humanOverride bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			if success {
				s.entries[i].Outcome = "success"
			} else {
				s.entries[i].Outcome = "failure"
			}
			s.entries[i].HumanOverride = humanOverride
			return nil
		}
	}
	return fmt.Errorf("audit entry %s not found", id)
}

// Len returns the number of appended entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
