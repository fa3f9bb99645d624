package salescalls

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the sales_calls schema. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// PostgresStore implements Store on the sales_calls table.
// Owner scoping is always part of the WHERE clause; nothing is filtered in Go.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

const recordColumns = `id::text, user_id, to_char("date", 'YYYY-MM-DD'), to_char("time", 'HH24:MI'),
       customer, duration, sentiment, ai_processing_progress, status, created_at, updated_at`

func (s *PostgresStore) List(ctx context.Context, q ListQuery) ([]Record, error) {
	if !q.valid() {
		return nil, ErrUnscopedQuery
	}

	var (
		rows *sql.Rows
		err  error
	)
	if q.AllOwners {
		const stmt = `
SELECT ` + recordColumns + `
FROM sales_calls
ORDER BY created_at DESC, id DESC
`
		rows, err = s.db.QueryContext(ctx, stmt)
	} else {
		const stmt = `
SELECT ` + recordColumns + `
FROM sales_calls
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`
		rows, err = s.db.QueryContext(ctx, stmt, q.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, f Fields) (Record, error) {
	const q = `
INSERT INTO sales_calls (
  user_id, "date", "time", customer, duration, sentiment, ai_processing_progress, status
) VALUES (
  $1, $2::date, $3::time, $4, $5, $6, $7, $8
)
RETURNING ` + recordColumns

	return scanRecord(s.db.QueryRowContext(ctx, q,
		f.OwnerID,
		f.OccurredOn,
		f.OccurredAt,
		f.CustomerName,
		f.DurationLabel,
		string(f.Sentiment),
		f.Progress,
		string(f.Status),
	))
}

func (s *PostgresStore) Update(ctx context.Context, id, ownerID string, f Fields) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}

	const q = `
UPDATE sales_calls
SET "date" = $3::date,
    "time" = $4::time,
    customer = $5,
    duration = $6,
    sentiment = $7,
    ai_processing_progress = $8,
    status = $9,
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + recordColumns

	r, err := scanRecord(s.db.QueryRowContext(ctx, q,
		id,
		ownerID,
		f.OccurredOn,
		f.OccurredAt,
		f.CustomerName,
		f.DurationLabel,
		string(f.Sentiment),
		f.Progress,
		string(f.Status),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	const q = `
DELETE FROM sales_calls
WHERE id = $1 AND user_id = $2
`
	res, err := s.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r         Record
		sentiment string
		status    string
	)
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.OccurredOn,
		&r.OccurredAt,
		&r.CustomerName,
		&r.DurationLabel,
		&sentiment,
		&r.Progress,
		&status,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	r.Sentiment = Sentiment(sentiment)
	r.Status = Status(status)
	return r, nil
}
