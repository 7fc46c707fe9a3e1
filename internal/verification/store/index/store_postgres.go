package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/tx"
)

// PostgresStore persists the session index in PostgreSQL over database/sql.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS session_index (
//	    session_id   UUID PRIMARY KEY,
//	    user_id      UUID NOT NULL,
//	    status       TEXT NOT NULL,
//	    target_score DOUBLE PRECISION NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    method_count INT NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS session_index_user_idx ON session_index (user_id);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session index.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the session_index table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_index (
			session_id   UUID PRIMARY KEY,
			user_id      UUID NOT NULL,
			status       TEXT NOT NULL,
			target_score DOUBLE PRECISION NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			method_count INT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate session_index: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS session_index_user_idx ON session_index (user_id)`)
	if err != nil {
		return fmt.Errorf("migrate session_index index: %w", err)
	}
	return nil
}

// execer lets Upsert run inside a caller-provided transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

// Upsert writes the entry, replacing any previous row for the session.
// When the context carries a transaction the write joins it.
func (s *PostgresStore) Upsert(ctx context.Context, entry Entry) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO session_index (session_id, user_id, status, target_score, created_at, method_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			status = EXCLUDED.status,
			target_score = EXCLUDED.target_score,
			method_count = EXCLUDED.method_count`,
		uuid.UUID(entry.SessionID), uuid.UUID(entry.UserID), string(entry.Status),
		entry.TargetScore, entry.CreatedAt, entry.MethodCount,
	)
	if err != nil {
		return fmt.Errorf("upsert session index: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT session_id, user_id, status, target_score, created_at, method_count
		FROM session_index
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`

	var userArg any
	if !filter.UserID.IsNil() {
		userArg = uuid.UUID(filter.UserID)
	}
	var statusArg any
	if filter.Status != "" {
		statusArg = string(filter.Status)
	}

	rows, err := s.db.QueryContext(ctx, query, userArg, statusArg)
	if err != nil {
		return nil, fmt.Errorf("list session index: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var sessionID, userID uuid.UUID
		var status string
		if err := rows.Scan(&sessionID, &userID, &status, &entry.TargetScore, &entry.CreatedAt, &entry.MethodCount); err != nil {
			return nil, fmt.Errorf("scan session index row: %w", err)
		}
		entry.SessionID = id.SessionID(sessionID)
		entry.UserID = id.UserID(userID)
		entry.Status = models.SessionStatus(status)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session index rows: %w", err)
	}
	return out, nil
}
