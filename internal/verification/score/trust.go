package score

import (
	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// MaxTrustBonus is the cap on the trust-network contribution.
const MaxTrustBonus = 15.0

// trustFloor is the minimum verification score a trusted party needs before
// their vouching counts. Connections to parties at or below the floor
// contribute nothing, which stops rings of unverified accounts from
// amplifying each other.
const trustFloor = 50.0

// TrustStrength computes the bounded trust-network bonus. For each connection
// whose trusted party's own score exceeds the floor, it accumulates
// strength × (score/100) × 15, caps the sum at 15, and rounds to 2 decimals.
// trustedScores maps trusted user IDs to their current verification scores;
// connections without an entry are skipped.
func TrustStrength(connections []models.TrustConnection, trustedScores map[id.UserID]float64) float64 {
	var total float64
	for _, conn := range connections {
		trustedScore, ok := trustedScores[conn.TrustedUserID]
		if !ok || trustedScore <= trustFloor {
			continue
		}
		total += conn.Strength * (trustedScore / 100) * MaxTrustBonus
	}
	return round2(min(total, MaxTrustBonus))
}
