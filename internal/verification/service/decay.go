package service

import (
	"context"
	"time"

	"vouch/internal/verification/decay"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

func (s *Service) decaySupervisor() (*decay.Supervisor, error) {
	if s.deps.Decay == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "decay supervisor not configured")
	}
	return s.deps.Decay, nil
}

// StartDecay begins a reputation decay cycle for the user.
func (s *Service) StartDecay(ctx context.Context, userID id.UserID, interval time.Duration, maxIterations int) error {
	sup, err := s.decaySupervisor()
	if err != nil {
		return err
	}
	return sup.Start(ctx, decay.Input{
		UserID:        userID,
		Interval:      interval,
		MaxIterations: maxIterations,
	})
}

// ResumeDecay restarts the user's decay cycle from its checkpoint.
func (s *Service) ResumeDecay(ctx context.Context, userID id.UserID) error {
	sup, err := s.decaySupervisor()
	if err != nil {
		return err
	}
	return sup.Resume(ctx, userID)
}

// CancelDecay stops the user's decay cycle at the next iteration boundary.
func (s *Service) CancelDecay(userID id.UserID) error {
	sup, err := s.decaySupervisor()
	if err != nil {
		return err
	}
	return sup.Cancel(userID)
}

// CurrentReputation answers the decay reputation query.
func (s *Service) CurrentReputation(userID id.UserID) (float64, error) {
	sup, err := s.decaySupervisor()
	if err != nil {
		return 0, err
	}
	return sup.CurrentReputation(userID)
}

// IsDecayCancelled answers the decay cancellation query.
func (s *Service) IsDecayCancelled(userID id.UserID) (bool, error) {
	sup, err := s.decaySupervisor()
	if err != nil {
		return false, err
	}
	return sup.IsCancelled(userID)
}
