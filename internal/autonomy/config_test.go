package autonomy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aida/autonomy/internal/decision"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		level     decision.AutonomyLevel
		threshold float64
		wantErr   bool
	}{
		{"valid conservative", 1, 0.8, false},
		{"valid moderate", 3, 0.5, false},
		{"L4 with low threshold", 4, 0.65, true},
		{"L4 at boundary", 4, 0.7, false},
		{"L5 with L4 threshold", 5, 0.75, true},
		{"L5 at boundary", 5, 0.8, false},
		{"L5 above boundary", 5, 0.85, false},
		{"level zero", 0, 0.8, true},
		{"level six", 6, 0.8, true},
		{"threshold below floor", 2, 0.05, true},
		{"threshold above one", 2, 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				SubjectID:           "user-1",
				Process:             "lead_qualification",
				Level:               tt.level,
				ConfidenceThreshold: tt.threshold,
			}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigValidationCustomRuleBounds(t *testing.T) {
	cfg := &Config{
		SubjectID:           "user-1",
		Process:             "lead_qualification",
		Level:               2,
		ConfidenceThreshold: 0.6,
		CustomRules: CustomRules{
			"lead_qualification": {MinConfidence: 1.5},
		},
	}
	assert.Error(t, cfg.Validate())

	cfg.CustomRules["lead_qualification"] = RuleSet{MinConfidence: 0.9}
	assert.NoError(t, cfg.Validate())
}

func TestMinConfidenceFor(t *testing.T) {
	cfg := &Config{
		CustomRules: CustomRules{
			"deal_progression": {MinConfidence: 0.75},
		},
	}
	assert.Equal(t, 0.75, cfg.MinConfidenceFor(decision.TypeDealProgression))
	assert.Equal(t, 0.0, cfg.MinConfidenceFor(decision.TypeLeadQualification))
}

func TestCacheServesDefaultsWhenStoreFails(t *testing.T) {
	cache := NewConfigCache(failingStore{})

	cfg := cache.GetConfig(context.Background(), "user-1", "lead_qualification")
	require.NotNil(t, cfg)
	assert.Equal(t, decision.LevelDraft, cfg.Level)
	assert.Equal(t, 0.8, cfg.ConfidenceThreshold)
}

type failingStore struct{}

func (failingStore) GetConfig(ctx context.Context, subjectID, process string) (*Config, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) UpsertConfig(ctx context.Context, cfg *Config) error {
	return errors.New("connection refused")
}

func TestCachePutRejectsInvalidAtomically(t *testing.T) {
	store := NewMemoryStore()
	cache := NewConfigCache(store)

	err := cache.Put(context.Background(), &Config{
		SubjectID:           "user-1",
		Process:             "lead_qualification",
		Level:               5,
		ConfidenceThreshold: 0.5,
	})
	require.Error(t, err)

	// Nothing persisted, defaults still served.
	stored, err := store.GetConfig(context.Background(), "user-1", "lead_qualification")
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, decision.LevelDraft, cache.GetConfig(context.Background(), "user-1", "lead_qualification").Level)
}

func TestCachePutPersistsAndRefreshes(t *testing.T) {
	store := NewMemoryStore()
	cache := NewConfigCache(store)
	ctx := context.Background()

	// Warm the cache with defaults first.
	assert.Equal(t, decision.LevelDraft, cache.GetConfig(ctx, "user-1", "lead_qualification").Level)

	require.NoError(t, cache.Put(ctx, &Config{
		SubjectID:           "user-1",
		Process:             "lead_qualification",
		Level:               3,
		ConfidenceThreshold: 0.7,
	}))

	got := cache.GetConfig(ctx, "user-1", "lead_qualification")
	assert.Equal(t, decision.LevelSupervised, got.Level)
	assert.Equal(t, 0.7, got.ConfidenceThreshold)

	stored, err := store.GetConfig(ctx, "user-1", "lead_qualification")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, decision.LevelSupervised, stored.Level)
}

func TestCacheLastWriteWins(t *testing.T) {
	cache := NewConfigCache(NewMemoryStore())
	ctx := context.Background()

	for _, threshold := range []float64{0.5, 0.6, 0.7} {
		require.NoError(t, cache.Put(ctx, &Config{
			SubjectID:           "user-1",
			Process:             "deal_progression",
			Level:               2,
			ConfidenceThreshold: threshold,
		}))
	}

	assert.Equal(t, 0.7, cache.GetConfig(ctx, "user-1", "deal_progression").ConfidenceThreshold)
}

func TestInvalidateForcesReload(t *testing.T) {
	store := NewMemoryStore()
	cache := NewConfigCache(store)
	ctx := context.Background()

	cache.GetConfig(ctx, "user-1", "lead_qualification")

	// Write behind the cache's back, then invalidate.
	require.NoError(t, store.UpsertConfig(ctx, &Config{
		SubjectID:           "user-1",
		Process:             "lead_qualification",
		Level:               4,
		ConfidenceThreshold: 0.75,
	}))
	assert.Equal(t, decision.LevelDraft, cache.GetConfig(ctx, "user-1", "lead_qualification").Level)

	cache.Invalidate("user-1", "lead_qualification")
	assert.Equal(t, decision.LevelDelegated, cache.GetConfig(ctx, "user-1", "lead_qualification").Level)
}
