package models

import (
	"time"

	id "vouch/pkg/domain"
)

// TrustConnection is one weighted vouching edge owned by the trustor.
// The evaluator treats it as read-only input.
type TrustConnection struct {
	TrustedUserID id.UserID `json:"trusted_user_id"`
	Strength      float64   `json:"strength"` // 0..1
	Since         time.Time `json:"since"`
}
