// Package index persists queryable session attributes. Rows are upserted on
// every session change and read by external filtering, never by the engine
// itself.
package index

import (
	"context"
	"time"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// Entry is the filterable projection of one session.
type Entry struct {
	SessionID   id.SessionID
	UserID      id.UserID
	Status      models.SessionStatus
	TargetScore float64
	CreatedAt   time.Time
	MethodCount int
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	UserID id.UserID
	Status models.SessionStatus
}

// Store upserts and lists session index entries. Upsert must be
// value-idempotent: re-writing the same entry is a no-op.
type Store interface {
	Upsert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, error)
}
