// Package eventlog persists session event envelopes. Implementations must
// keep (session_id, seq) unique so a retried append after a partial failure
// reports inserted=false instead of duplicating history.
package eventlog

import (
	"context"

	"vouch/internal/verification/events"
	id "vouch/pkg/domain"
)

// Store is the append-only event log consumed by the session engine.
type Store interface {
	// Append writes one envelope. inserted is false when an envelope with the
	// same (session, seq) already exists; that is not an error.
	Append(ctx context.Context, env events.Envelope) (inserted bool, err error)

	// ListBySession returns a session's envelopes ordered by Seq ascending.
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]events.Envelope, error)

	// OpenSessions returns the IDs of sessions whose log has a started event
	// but no finished event, for rehydration on startup.
	OpenSessions(ctx context.Context) ([]id.SessionID, error)
}
