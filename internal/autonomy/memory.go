package autonomy

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process config store for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]*Config)}
}

func (s *MemoryStore) GetConfig(ctx context.Context, subjectID, process string) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[cacheKey(subjectID, process)]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (s *MemoryStore) UpsertConfig(ctx context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cfg
	now := time.Now().UTC()
	if existing, ok := s.configs[cacheKey(cfg.SubjectID, cfg.Process)]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.configs[cacheKey(cfg.SubjectID, cfg.Process)] = &cp
	return nil
}

var _ Store = (*MemoryStore)(nil)
