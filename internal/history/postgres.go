package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aida/autonomy/internal/decision"
)

// queryTimeout bounds every store round-trip; on expiry callers substitute
// the neutral summary rather than failing the decision.
const queryTimeout = 3 * time.Second

// PostgresStore reads pattern summaries and record counts from Postgres.
// It queries the same decision_audit table the audit logger appends to.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// HistoricalPatterns aggregates past audited decisions of the same type.
func (s *PostgresStore) HistoricalPatterns(ctx context.Context, dt decision.Type, dc *decision.Context) (PatternSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
		SELECT COUNT(*),
		       COALESCE(AVG(CASE WHEN outcome = 'success' THEN 1.0 ELSE 0.0 END), 0.5),
		       COALESCE(AVG(confidence), 0.5)
		FROM decision_audit
		WHERE decision_type = $1 AND outcome IS NOT NULL`

	var summary PatternSummary
	err := s.db.QueryRowContext(ctx, q, string(dt)).Scan(
		&summary.SimilarCount,
		&summary.SuccessRate,
		&summary.AvgConfidence,
	)
	if err != nil {
		return PatternSummary{}, fmt.Errorf("pattern query: %w", err)
	}

	summary.Confidence = summaryConfidence(summary.SimilarCount)
	return summary, nil
}

// CommunicationCount returns how many communications have been recorded for
// a subject.
func (s *PostgresStore) CommunicationCount(ctx context.Context, subjectID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	const q = `SELECT COUNT(*) FROM communications WHERE subject_id = $1`
	if err := s.db.QueryRowContext(ctx, q, subjectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("communication count query: %w", err)
	}
	return count, nil
}

var (
	_ PatternStore  = (*PostgresStore)(nil)
	_ RecordCounter = (*PostgresStore)(nil)
)
