// Package score holds the pure scoring rules: composite aggregation over
// method records and trust-network strength. Both functions are deterministic
// and replay-safe: no clock, no randomness, no I/O.
package score

import (
	"math"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// MaxComposite is the cap on the aggregated verification score.
const MaxComposite = 100.0

// communityFreeCount is how many community records contribute at full value
// before the diminishing-returns penalty applies.
const communityFreeCount = 2

// communityPenalty is the per-excess-record deduction.
const communityPenalty = 2.0

// Aggregate turns a method record list into a bounded composite score:
// sum of weights, capped at 100, minus 2 points for each community record
// beyond the second, floored at 0, rounded to 2 decimal places.
func Aggregate(records []models.MethodRecord) float64 {
	var total float64
	communityCount := 0
	for _, record := range records {
		total += record.Weight
		if record.Method == id.MethodCommunity {
			communityCount++
		}
	}

	final := min(total, MaxComposite)

	if communityCount > communityFreeCount {
		excess := float64(communityCount - communityFreeCount)
		final = max(final-excess*communityPenalty, 0)
	}

	return round2(final)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
