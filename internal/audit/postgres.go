package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aida/autonomy/internal/decision"
)

const queryTimeout = 3 * time.Second

// PostgresStore appends audit entries to the decision_audit table. Inserts
// are row-level, so concurrent appends cannot interleave.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the store expects. Applied by operators, kept here so
// the table shape lives next to the queries that use it.
const Schema = `
CREATE TABLE IF NOT EXISTS decision_audit (
	id                  TEXT PRIMARY KEY,
	ts                  TIMESTAMPTZ NOT NULL,
	decision_type       TEXT NOT NULL,
	autonomy_level      INT NOT NULL,
	confidence          DOUBLE PRECISION NOT NULL,
	composite_score     DOUBLE PRECISION NOT NULL,
	decision            TEXT NOT NULL,
	status              TEXT NOT NULL,
	context_id          TEXT NOT NULL,
	subject_id          TEXT,
	requires_escalation BOOLEAN NOT NULL,
	outcome             TEXT,
	human_override      BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS decision_audit_ts_idx ON decision_audit (ts);
CREATE INDEX IF NOT EXISTS decision_audit_subject_idx ON decision_audit (subject_id);

CREATE TABLE IF NOT EXISTS autonomy_configs (
	subject_id           TEXT NOT NULL,
	process              TEXT NOT NULL,
	level                INT NOT NULL,
	confidence_threshold DOUBLE PRECISION NOT NULL,
	custom_rules         JSONB,
	business_hours_only  BOOLEAN NOT NULL DEFAULT FALSE,
	max_deal_value       DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (subject_id, process)
);

CREATE TABLE IF NOT EXISTS communications (
	id         TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	sent_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS communications_subject_idx ON communications (subject_id);
`

// Append inserts one entry.
func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		INSERT INTO decision_audit
			(id, ts, decision_type, autonomy_level, confidence, composite_score,
			 decision, status, context_id, subject_id, requires_escalation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, q,
		entry.ID,
		entry.Timestamp,
		string(entry.DecisionType),
		int(entry.AutonomyLevel),
		entry.Confidence,
		entry.CompositeScore,
		entry.Decision,
		string(entry.Status),
		entry.ContextID,
		entry.SubjectID,
		entry.RequiresEscalation,
	)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// List returns entries in a date range, optionally filtered by subject.
func (s *PostgresStore) List(ctx context.Context, subjectID string, from, to time.Time) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		SELECT id, ts, decision_type, autonomy_level, confidence, composite_score,
		       decision, status, context_id, COALESCE(subject_id, ''),
		       requires_escalation, COALESCE(outcome, ''), human_override
		FROM decision_audit
		WHERE ts >= $1 AND ts <= $2 AND ($3 = '' OR subject_id = $3)
		ORDER BY ts`

	rows, err := s.db.QueryContext(ctx, q, from, to, subjectID)
	if err != nil {
		return nil, fmt.Errorf("audit list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var dt, status string
		var level int
		if err := rows.Scan(&e.ID, &e.Timestamp, &dt, &level, &e.Confidence,
			&e.CompositeScore, &e.Decision, &status, &e.ContextID, &e.SubjectID,
			&e.RequiresEscalation, &e.Outcome, &e.HumanOverride); err != nil {
			return nil, fmt.Errorf("audit scan: %w", err)
		}
		e.DecisionType = decision.Type(dt)
		e.Status = decision.Status(status)
		e.AutonomyLevel = decision.AutonomyLevel(level)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ConfirmOutcome records the real-world result of a past decision.
func (s *PostgresStore) ConfirmOutcome(ctx context.Context, id string, success, humanOverride bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	outcome := "failure"
	if success {
		outcome = "success"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE decision_audit SET outcome = $2, human_override = $3 WHERE id = $1`,
		id, outcome, humanOverride)
	if err != nil {
		return fmt.Errorf("confirm outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
