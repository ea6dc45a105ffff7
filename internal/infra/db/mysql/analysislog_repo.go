package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/questionlab/qscore/internal/domain/auditlog"
)

type AnalysisLogRepository struct {
	db *sql.DB
}

func NewAnalysisLogRepository(db *sql.DB) *AnalysisLogRepository {
	return &AnalysisLogRepository{db: db}
}

// Append inserts one log entry
func (r *AnalysisLogRepository) Append(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO analysis_logs
  (id, api_key, subject, question_type, latency_ms, flags, created_at)
VALUES (?,?,?,?,?,?,?);
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.APIKey, stringOrDash(e.Subject), e.QuestionType, e.LatencyMS, marshalFlags(e.Flags), createdAt)
	return err
}

// Latest returns the newest entries, ordered by created_at desc
func (r *AnalysisLogRepository) Latest(ctx context.Context, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, api_key, subject, question_type, latency_ms, flags, created_at
FROM analysis_logs
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary aggregates entries from the last sinceDays days. Totals and
// latency come straight from the rows; flag counts need the JSON column
// unpacked, so the aggregation happens here rather than in SQL.
func (r *AnalysisLogRepository) Summary(ctx context.Context, sinceDays int) (*domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	since := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT question_type, latency_ms, flags
FROM analysis_logs
WHERE created_at >= ?;
`
	rows, err := r.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := &domain.Summary{
		ByType:     make(map[string]int64),
		FlagCounts: make(map[string]int64),
	}
	var latencyTotal int64
	for rows.Next() {
		var qtype, flagsRaw string
		var latency int64
		if err := rows.Scan(&qtype, &latency, &flagsRaw); err != nil {
			return nil, err
		}
		sum.TotalAnalyses++
		latencyTotal += latency
		sum.ByType[qtype]++
		for _, f := range unmarshalFlags(flagsRaw) {
			sum.FlagCounts[f]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if sum.TotalAnalyses > 0 {
		sum.AvgLatencyMS = float64(latencyTotal) / float64(sum.TotalAnalyses)
	}
	return sum, nil
}

func scanEntry(rows *sql.Rows) (*domain.Entry, error) {
	var e domain.Entry
	var flagsRaw string
	var created time.Time
	if err := rows.Scan(&e.ID, &e.APIKey, &e.Subject, &e.QuestionType, &e.LatencyMS, &flagsRaw, &created); err != nil {
		return nil, err
	}
	e.Flags = unmarshalFlags(flagsRaw)
	e.CreatedAt = created
	return &e, nil
}
