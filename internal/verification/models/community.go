package models

import (
	"time"

	id "vouch/pkg/domain"
)

// ValidatorResponse is one community member's answer to a validation request.
type ValidatorResponse struct {
	ValidatorID id.ValidatorID `json:"validator_id"`
	Approved    bool           `json:"approved"`
	Comment     string         `json:"comment,omitempty"`
	RespondedAt time.Time      `json:"responded_at"`
}

// ValidationRound tracks one community validation attempt. RequiredCount is
// fixed at round start. A validator may respond once; the first response wins
// and later ones are ignored (duplicate responses would otherwise double-count
// toward the required threshold).
type ValidationRound struct {
	RequestedValidators []id.ValidatorID
	RequiredCount       int

	approvals  []ValidatorResponse
	rejections []ValidatorResponse
	responded  map[id.ValidatorID]struct{}
}

// NewValidationRound starts a round with a fixed required approval count.
func NewValidationRound(requested []id.ValidatorID, required int) *ValidationRound {
	return &ValidationRound{
		RequestedValidators: requested,
		RequiredCount:       required,
		responded:           make(map[id.ValidatorID]struct{}),
	}
}

// Record applies a validator response. Returns false when the validator has
// already responded and the response was ignored.
func (r *ValidationRound) Record(resp ValidatorResponse) bool {
	if _, dup := r.responded[resp.ValidatorID]; dup {
		return false
	}
	r.responded[resp.ValidatorID] = struct{}{}
	if resp.Approved {
		r.approvals = append(r.approvals, resp)
	} else {
		r.rejections = append(r.rejections, resp)
	}
	return true
}

// Approvals returns the count of recorded approvals.
func (r *ValidationRound) Approvals() int { return len(r.approvals) }

// Rejections returns the count of recorded rejections.
func (r *ValidationRound) Rejections() int { return len(r.rejections) }

// Responses returns the total number of distinct validator responses.
func (r *ValidationRound) Responses() int { return len(r.approvals) + len(r.rejections) }

// Complete reports whether enough distinct validators have responded.
func (r *ValidationRound) Complete() bool { return r.Responses() >= r.RequiredCount }

// Succeeded reports whether the round gathered the required approvals.
func (r *ValidationRound) Succeeded() bool { return len(r.approvals) >= r.RequiredCount }

// ValidationProgress is a queryable snapshot of a round.
type ValidationProgress struct {
	Approvals  int  `json:"approvals"`
	Rejections int  `json:"rejections"`
	Required   int  `json:"required"`
	Complete   bool `json:"complete"`
}

// Progress snapshots the round for the query surface.
func (r *ValidationRound) Progress() ValidationProgress {
	return ValidationProgress{
		Approvals:  len(r.approvals),
		Rejections: len(r.rejections),
		Required:   r.RequiredCount,
		Complete:   r.Succeeded(),
	}
}
