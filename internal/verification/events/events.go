// Package events defines the append-only event log that makes verification
// sessions durable. Every accepted signal and engine decision is persisted as
// an Envelope before it mutates in-memory state; folding a session's log
// rebuilds that state exactly, so a crashed engine resumes where it stopped.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// Kind tags the payload type inside an Envelope.
type Kind string

const (
	KindSessionStarted  Kind = "session_started"
	KindMethodRecorded  Kind = "method_recorded"
	KindSessionFinished Kind = "session_finished"
)

// Envelope is one durable log entry. Seq is assigned by the session's event
// loop and is strictly increasing per session; (SessionID, Seq) is unique in
// every store, which makes Append safe to retry.
type Envelope struct {
	SessionID  id.SessionID    `json:"session_id"`
	Seq        int64           `json:"seq"`
	Kind       Kind            `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// SessionStarted opens a session's log.
type SessionStarted struct {
	UserID      id.UserID `json:"user_id"`
	TargetScore float64   `json:"target_score"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
}

// MethodRecorded commits one method upsert and the score it produced.
type MethodRecorded struct {
	Record   models.MethodRecord `json:"record"`
	NewScore float64             `json:"new_score"`
}

// SessionFinished closes a session's log with its terminal status.
type SessionFinished struct {
	Status     models.SessionStatus `json:"status"`
	FinalScore float64              `json:"final_score"`
	FinishedAt time.Time            `json:"finished_at"`
}

// Seal marshals a payload into an Envelope.
func Seal(sessionID id.SessionID, seq int64, at time.Time, payload any) (Envelope, error) {
	var kind Kind
	switch payload.(type) {
	case SessionStarted:
		kind = KindSessionStarted
	case MethodRecorded:
		kind = KindMethodRecorded
	case SessionFinished:
		kind = KindSessionFinished
	default:
		return Envelope{}, fmt.Errorf("unknown event payload type %T", payload)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", kind, err)
	}
	return Envelope{
		SessionID:  sessionID,
		Seq:        seq,
		Kind:       kind,
		Payload:    raw,
		RecordedAt: at,
	}, nil
}

// Open unmarshals the payload of an Envelope into dst.
func Open(env Envelope, dst any) error {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("unmarshal %s event (seq %d): %w", env.Kind, env.Seq, err)
	}
	return nil
}
