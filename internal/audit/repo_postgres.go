package audit

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
  id            uuid        PRIMARY KEY,
  type          text        NOT NULL,
  actor_user_id text        NOT NULL,
  ip_address    text        NOT NULL DEFAULT '',
  record_id     text        NOT NULL DEFAULT '',
  message       text        NOT NULL DEFAULT '',
  created_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_actor_created_idx ON audit_events (actor_user_id, created_at DESC);
`

// Migrate creates the audit_events table. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// PostgresRepo appends events to audit_events. It only ever INSERTs.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_user_id, ip_address, record_id, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.ActorUserID,
		e.IPAddress,
		e.RecordID,
		e.Message,
		e.CreatedAt,
	)
	return err
}
