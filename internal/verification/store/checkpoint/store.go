// Package checkpoint persists the small durable records that let long-running
// processes resume instead of restarting: decay cycle checkpoints and
// document-extraction progress markers.
package checkpoint

import (
	"context"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// DecayStore persists decay cycle checkpoints keyed by user. Load returns
// sentinel.ErrNotFound when no checkpoint exists.
type DecayStore interface {
	SaveDecay(ctx context.Context, cp models.DecayCheckpoint) error
	LoadDecay(ctx context.Context, userID id.UserID) (models.DecayCheckpoint, error)
	DeleteDecay(ctx context.Context, userID id.UserID) error
}

// ProgressStore persists extraction progress (last completed unit) keyed by
// session so a retried extraction resumes rather than starting over.
// LoadProgress returns 0 when no progress has been recorded.
type ProgressStore interface {
	SaveProgress(ctx context.Context, sessionID id.SessionID, lastCompleted int) error
	LoadProgress(ctx context.Context, sessionID id.SessionID) (int, error)
	DeleteProgress(ctx context.Context, sessionID id.SessionID) error
}

// Store combines both checkpoint kinds; the Redis and memory implementations
// satisfy it.
type Store interface {
	DecayStore
	ProgressStore
}
