package eventlog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"vouch/internal/verification/events"
	id "vouch/pkg/domain"
)

// PostgresStore persists event envelopes in PostgreSQL via pgx.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS session_events (
//	    session_id  UUID        NOT NULL,
//	    seq         BIGINT      NOT NULL,
//	    kind        TEXT        NOT NULL,
//	    payload     JSONB       NOT NULL,
//	    recorded_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (session_id, seq)
//	);
//
// The primary key makes Append structurally idempotent: a retried write after
// a partial failure lands on ON CONFLICT DO NOTHING.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed event log.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the session_events table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_events (
			session_id  UUID        NOT NULL,
			seq         BIGINT      NOT NULL,
			kind        TEXT        NOT NULL,
			payload     JSONB       NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`)
	if err != nil {
		return fmt.Errorf("migrate session_events: %w", err)
	}
	return nil
}

// Append inserts the envelope, reporting false when the slot was taken.
func (s *PostgresStore) Append(ctx context.Context, env events.Envelope) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO session_events (session_id, seq, kind, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, seq) DO NOTHING`,
		uuid.UUID(env.SessionID), env.Seq, string(env.Kind), []byte(env.Payload), env.RecordedAt,
	)
	if err != nil {
		return false, fmt.Errorf("append session event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListBySession returns the session's envelopes ordered by sequence.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID id.SessionID) ([]events.Envelope, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, kind, payload, recorded_at
		FROM session_events
		WHERE session_id = $1
		ORDER BY seq ASC`,
		uuid.UUID(sessionID),
	)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	var out []events.Envelope
	for rows.Next() {
		env := events.Envelope{SessionID: sessionID}
		var kind string
		var payload []byte
		if err := rows.Scan(&env.Seq, &kind, &payload, &env.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		env.Kind = events.Kind(kind)
		env.Payload = payload
		out = append(out, env)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return out, nil
}

// OpenSessions returns sessions with a started event and no finished event.
func (s *PostgresStore) OpenSessions(ctx context.Context) ([]id.SessionID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT session_id
		FROM session_events e
		WHERE kind = $1
		  AND NOT EXISTS (
			SELECT 1 FROM session_events f
			WHERE f.session_id = e.session_id AND f.kind = $2
		  )`,
		string(events.KindSessionStarted), string(events.KindSessionFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var out []id.SessionID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan open session: %w", err)
		}
		out = append(out, id.SessionID(u))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open sessions: %w", err)
	}
	return out, nil
}
