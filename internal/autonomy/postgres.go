package autonomy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aida/autonomy/internal/decision"
)

const queryTimeout = 3 * time.Second

// PostgresStore persists autonomy configs in the autonomy_configs table,
// one row per (subject, process) with last-write-wins upserts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetConfig loads the active config for a pair, or nil when none exists.
func (s *PostgresStore) GetConfig(ctx context.Context, subjectID, process string) (*Config, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		SELECT level, confidence_threshold, custom_rules,
		       business_hours_only, max_deal_value, created_at, updated_at
		FROM autonomy_configs
		WHERE subject_id = $1 AND process = $2`

	cfg := &Config{SubjectID: subjectID, Process: process}
	var level int
	var rulesJSON []byte

	err := s.db.QueryRowContext(ctx, q, subjectID, process).Scan(
		&level,
		&cfg.ConfidenceThreshold,
		&rulesJSON,
		&cfg.TimeRestrictions.BusinessHoursOnly,
		&cfg.ValueLimits.MaxDealValue,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("autonomy config query: %w", err)
	}

	cfg.Level = decision.AutonomyLevel(level)
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &cfg.CustomRules); err != nil {
			return nil, fmt.Errorf("decode custom rules: %w", err)
		}
	}
	return cfg, nil
}

// UpsertConfig writes a config row, replacing any existing row for the pair.
func (s *PostgresStore) UpsertConfig(ctx context.Context, cfg *Config) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rulesJSON, err := json.Marshal(cfg.CustomRules)
	if err != nil {
		return fmt.Errorf("encode custom rules: %w", err)
	}

	const q = `
		INSERT INTO autonomy_configs
			(subject_id, process, level, confidence_threshold, custom_rules,
			 business_hours_only, max_deal_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (subject_id, process) DO UPDATE SET
			level = EXCLUDED.level,
			confidence_threshold = EXCLUDED.confidence_threshold,
			custom_rules = EXCLUDED.custom_rules,
			business_hours_only = EXCLUDED.business_hours_only,
			max_deal_value = EXCLUDED.max_deal_value,
			updated_at = NOW()`

	_, err = s.db.ExecContext(ctx, q,
		cfg.SubjectID,
		cfg.Process,
		int(cfg.Level),
		cfg.ConfidenceThreshold,
		rulesJSON,
		cfg.TimeRestrictions.BusinessHoursOnly,
		cfg.ValueLimits.MaxDealValue,
	)
	if err != nil {
		return fmt.Errorf("autonomy config upsert: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
