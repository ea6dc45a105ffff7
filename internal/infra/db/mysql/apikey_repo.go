package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/questionlab/qscore/internal/domain/apikeys"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Save inserts a key record. Records are immutable: a duplicate key is an
// error, never an update.
func (r *APIKeyRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO api_keys
  (api_key, institute, email, provider, created_at)
VALUES (?,?,?,?,?);
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, rec.APIKey, rec.Institute, rec.Email, stringOrDash(rec.Provider), createdAt)
	return err
}

// Lookup finds a record by exact key match
func (r *APIKeyRepository) Lookup(ctx context.Context, key string) (*domain.Record, error) {
	const q = `
SELECT api_key, institute, email, provider, created_at
FROM api_keys
WHERE api_key=?;
`
	row := r.db.QueryRowContext(ctx, q, key)
	var rec domain.Record
	var created time.Time
	if err := row.Scan(&rec.APIKey, &rec.Institute, &rec.Email, &rec.Provider, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.CreatedAt = created
	return &rec, nil
}
