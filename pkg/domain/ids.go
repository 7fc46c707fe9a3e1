// Package domain holds domain primitives shared across packages: typed
// identifiers and the closed set of verification method kinds.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-type
// assignment. Construct via ParseXxxID at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "vouch/pkg/domain-errors"
)

// UserID identifies the person being verified.
type UserID uuid.UUID

// SessionID identifies one verification session instance.
type SessionID uuid.UUID

// ValidatorID identifies a community member asked to vouch.
type ValidatorID uuid.UUID

// VerifierID identifies an authorized in-person verifier.
type VerifierID uuid.UUID

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s: %q", kind, s)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be nil", kind)
	}
	return u, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

// ParseValidatorID validates and returns a ValidatorID.
func ParseValidatorID(s string) (ValidatorID, error) {
	u, err := parseUUID(s, "validator ID")
	return ValidatorID(u), err
}

// ParseVerifierID validates and returns a VerifierID.
func ParseVerifierID(s string) (VerifierID, error) {
	u, err := parseUUID(s, "verifier ID")
	return VerifierID(u), err
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewValidatorID returns a fresh random ValidatorID.
func NewValidatorID() ValidatorID { return ValidatorID(uuid.New()) }

// NewVerifierID returns a fresh random VerifierID.
func NewVerifierID() VerifierID { return VerifierID(uuid.New()) }

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id SessionID) String() string   { return uuid.UUID(id).String() }
func (id ValidatorID) String() string { return uuid.UUID(id).String() }
func (id VerifierID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ValidatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VerifierID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
