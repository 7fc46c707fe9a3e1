package models

import (
	"time"

	id "vouch/pkg/domain"
)

// DecayStopReason explains why a decay process terminated.
type DecayStopReason string

const (
	DecayStopCancelled     DecayStopReason = "cancelled"
	DecayStopMaxIterations DecayStopReason = "max_iterations"
)

// DecayCheckpoint is the complete state carried across decay cycle restarts.
// Keeping it to these fields bounds a single cycle's history no matter how
// many years the process runs.
type DecayCheckpoint struct {
	UserID        id.UserID     `json:"user_id"`
	Iteration     int           `json:"iteration"`
	Interval      time.Duration `json:"interval"`
	MaxIterations int           `json:"max_iterations"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DecayResult is returned when a decay process stops for good.
type DecayResult struct {
	UserID              id.UserID       `json:"user_id"`
	IterationsCompleted int             `json:"iterations_completed"`
	FinalReputation     float64         `json:"final_reputation"`
	StoppedReason       DecayStopReason `json:"stopped_reason"`
}
