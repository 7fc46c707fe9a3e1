package decay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store/checkpoint"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
)

// Supervisor owns the live decay cycles, at most one per user, and resumes
// crashed ones from their checkpoints.
type Supervisor struct {
	scores      activities.ScoreStore
	checkpoints checkpoint.DecayStore
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu     sync.Mutex
	cycles map[id.UserID]*runningCycle
}

type runningCycle struct {
	cycle  *Cycle
	cancel context.CancelFunc
	done   chan struct{}
	result models.DecayResult
	err    error
}

type SupervisorOption func(*Supervisor)

func WithSupervisorLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) { s.logger = logger }
}

func WithSupervisorMetrics(m *metrics.Metrics) SupervisorOption {
	return func(s *Supervisor) { s.metrics = m }
}

func NewSupervisor(scores activities.ScoreStore, checkpoints checkpoint.DecayStore, opts ...SupervisorOption) (*Supervisor, error) {
	if scores == nil {
		return nil, fmt.Errorf("score store is required")
	}
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}

	s := &Supervisor{
		scores:      scores,
		checkpoints: checkpoints,
		logger:      slog.Default(),
		cycles:      make(map[id.UserID]*runningCycle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches a fresh decay cycle for the user. A user already decaying
// reports a conflict.
func (s *Supervisor) Start(ctx context.Context, in Input) error {
	return s.launch(ctx, in)
}

// Resume restarts a user's decay cycle from its last checkpoint. Without a
// checkpoint it reports not-found; the caller decides whether to Start fresh.
func (s *Supervisor) Resume(ctx context.Context, userID id.UserID) error {
	cp, err := s.checkpoints.LoadDecay(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "no decay checkpoint for user %s", userID)
		}
		return err
	}
	s.logger.Info("resuming decay from checkpoint",
		"user_id", userID, "iteration", cp.Iteration, "max_iterations", cp.MaxIterations)
	return s.launch(ctx, Input{
		UserID:         cp.UserID,
		Interval:       cp.Interval,
		MaxIterations:  cp.MaxIterations,
		StartIteration: cp.Iteration,
	})
}

func (s *Supervisor) launch(ctx context.Context, in Input) error {
	cycle, err := New(s.scores, s.checkpoints, WithLogger(s.logger), WithMetrics(s.metrics))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if existing, ok := s.cycles[in.UserID]; ok {
		select {
		case <-existing.done:
			// Finished; replaceable.
		default:
			s.mu.Unlock()
			return dErrors.Newf(dErrors.CodeConflict, "decay already running for user %s", in.UserID)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rc := &runningCycle{cycle: cycle, cancel: cancel, done: make(chan struct{})}
	s.cycles[in.UserID] = rc
	s.mu.Unlock()

	go func() {
		defer close(rc.done)
		result, err := cycle.Run(runCtx, in)
		rc.result, rc.err = result, err
		if err != nil {
			s.logger.Warn("decay cycle stopped before completion", "user_id", in.UserID, "error", err)
			return
		}
		// A finished cycle needs no checkpoint anymore.
		if delErr := s.checkpoints.DeleteDecay(context.WithoutCancel(runCtx), in.UserID); delErr != nil {
			s.logger.Warn("decay checkpoint cleanup failed", "user_id", in.UserID, "error", delErr)
		}
		s.logger.Info("decay cycle finished",
			"user_id", in.UserID, "reason", result.StoppedReason,
			"iterations", result.IterationsCompleted, "final_reputation", result.FinalReputation)
	}()
	return nil
}

// Cancel delivers the cancel signal to a user's cycle.
func (s *Supervisor) Cancel(userID id.UserID) error {
	rc, err := s.lookup(userID)
	if err != nil {
		return err
	}
	rc.cycle.Cancel()
	return nil
}

// CurrentReputation answers the reputation query for a live cycle.
func (s *Supervisor) CurrentReputation(userID id.UserID) (float64, error) {
	rc, err := s.lookup(userID)
	if err != nil {
		return 0, err
	}
	return rc.cycle.CurrentReputation(), nil
}

// IsCancelled answers the cancellation query for a live cycle.
func (s *Supervisor) IsCancelled(userID id.UserID) (bool, error) {
	rc, err := s.lookup(userID)
	if err != nil {
		return false, err
	}
	return rc.cycle.IsCancelled(), nil
}

// Result returns a finished cycle's outcome, ok=false while it still runs.
func (s *Supervisor) Result(userID id.UserID) (models.DecayResult, bool, error) {
	rc, err := s.lookup(userID)
	if err != nil {
		return models.DecayResult{}, false, err
	}
	select {
	case <-rc.done:
		return rc.result, true, rc.err
	default:
		return models.DecayResult{}, false, nil
	}
}

// Shutdown stops every live cycle without cancelling its decay semantics;
// checkpoints keep them resumable.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.cycles {
		rc.cancel()
	}
}

func (s *Supervisor) lookup(userID id.UserID) (*runningCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.cycles[userID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no decay process for user %s", userID)
	}
	return rc, nil
}
