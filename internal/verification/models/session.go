package models

import (
	"fmt"
	"time"

	id "vouch/pkg/domain"
)

// SessionStatus is the lifecycle state of a verification session.
// Transitions are one-way: running is the only non-terminal state.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusTimedOut  SessionStatus = "timed_out"
	StatusCancelled SessionStatus = "cancelled"
)

var allowedTransitions = map[SessionStatus]map[SessionStatus]struct{}{
	StatusRunning: {
		StatusCompleted: {},
		StatusTimedOut:  {},
		StatusCancelled: {},
	},
	StatusCompleted: {},
	StatusTimedOut:  {},
	StatusCancelled: {},
}

// ValidateTransition rejects transitions not in the lifecycle table.
func ValidateTransition(from, to SessionStatus) error {
	targets, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("invalid session status: %q", from)
	}
	if _, ok := targets[to]; !ok {
		return fmt.Errorf("invalid session transition: %s -> %s", from, to)
	}
	return nil
}

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	targets, ok := allowedTransitions[s]
	return ok && len(targets) == 0
}

// MethodRecord is one completed verification method. A session holds at most
// one record per method type; re-submission replaces the existing record.
type MethodRecord struct {
	Method      id.MethodType  `json:"method"`
	Weight      float64        `json:"weight"`
	Evidence    map[string]any `json:"evidence,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// VerificationSession is the authoritative per-user session state. It is
// mutated only by the owning event loop; everyone else sees copies.
type VerificationSession struct {
	SessionID    id.SessionID
	UserID       id.UserID
	CurrentScore float64
	TargetScore  float64
	Deadline     time.Time
	Methods      []MethodRecord
	Status       SessionStatus
	CreatedAt    time.Time
	FinishedAt   time.Time
}

// UpsertMethod replaces the record for the same method type or appends a new
// one. Idempotent recording: repeat submissions never grow the list.
func (s *VerificationSession) UpsertMethod(record MethodRecord) {
	for i, existing := range s.Methods {
		if existing.Method == record.Method {
			s.Methods[i] = record
			return
		}
	}
	s.Methods = append(s.Methods, record)
}

// MethodsCopy returns a defensive copy of the method list.
func (s *VerificationSession) MethodsCopy() []MethodRecord {
	out := make([]MethodRecord, len(s.Methods))
	copy(out, s.Methods)
	return out
}

// Progress returns completion progress toward the target as a percentage,
// capped at 100. A zero target counts as already met.
func (s *VerificationSession) Progress() float64 {
	if s.TargetScore == 0 {
		return 100.0
	}
	return min((s.CurrentScore/s.TargetScore)*100, 100.0)
}

// Result is the immutable outcome of a finished session.
type Result struct {
	UserID           id.UserID      `json:"user_id"`
	FinalScore       float64        `json:"final_score"`
	MethodsCompleted []MethodRecord `json:"methods_completed"`
	CompletedAt      time.Time      `json:"completed_at"`
	Status           SessionStatus  `json:"status"`
	Attestation      string         `json:"attestation,omitempty"`
}
