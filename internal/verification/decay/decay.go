// Package decay runs the long-lived reputation decay process: sleep an
// interval, apply 5% decay, checkpoint, repeat, possibly for years. Each
// iteration writes its checkpoint atomically before the next cycle starts, so
// a crashed process resumes from the last completed iteration carrying
// nothing but the checkpoint fields.
package decay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store/checkpoint"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/retry"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Factor is the per-interval decay multiplier (5% decay).
const Factor = 0.95

// Defaults applied when Input leaves the knobs zero.
const (
	DefaultInterval      = 30 * 24 * time.Hour
	DefaultMaxIterations = 1000
)

// Input starts or resumes a decay process.
type Input struct {
	UserID        id.UserID
	Interval      time.Duration
	MaxIterations int
	// StartIteration is non-zero when resuming from a checkpoint.
	StartIteration int
}

func (in *Input) applyDefaults() {
	if in.Interval <= 0 {
		in.Interval = DefaultInterval
	}
	if in.MaxIterations <= 0 {
		in.MaxIterations = DefaultMaxIterations
	}
}

// Cycle is one user's decay process. Run loops until cancellation or the
// iteration cap; queries are safe from any goroutine.
type Cycle struct {
	scores      activities.ScoreStore
	checkpoints checkpoint.DecayStore
	logger      *slog.Logger
	metrics     *metrics.Metrics

	writePolicy retry.Policy

	cancelCh chan struct{}

	mu         sync.RWMutex
	reputation float64
	iteration  int
	cancelled  bool
}

type Option func(*Cycle)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cycle) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cycle) { c.metrics = m }
}

func WithWritePolicy(p retry.Policy) Option {
	return func(c *Cycle) { c.writePolicy = p }
}

func New(scores activities.ScoreStore, checkpoints checkpoint.DecayStore, opts ...Option) (*Cycle, error) {
	if scores == nil {
		return nil, fmt.Errorf("score store is required")
	}
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}

	c := &Cycle{
		scores:      scores,
		checkpoints: checkpoints,
		logger:      slog.Default(),
		writePolicy: retry.Standard(),
		cancelCh:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cancel signals the cycle to stop. Observed at the next wake-up, including
// mid-sleep; it never interrupts an in-flight decay write.
func (c *Cycle) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
	select {
	case c.cancelCh <- struct{}{}:
	default:
	}
}

// CurrentReputation answers the reputation query.
func (c *Cycle) CurrentReputation() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reputation
}

// IsCancelled answers the cancellation query.
func (c *Cycle) IsCancelled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cancelled
}

// Iteration returns the number of completed iterations.
func (c *Cycle) Iteration() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iteration
}

// Run executes the decay loop. It returns the terminal result, or an error
// only when ctx is cancelled (the checkpoint lets a supervisor resume).
func (c *Cycle) Run(ctx context.Context, in Input) (models.DecayResult, error) {
	in.applyDefaults()
	c.mu.Lock()
	c.iteration = in.StartIteration
	c.mu.Unlock()

	log := c.logger.With("user_id", in.UserID, "interval", in.Interval, "max_iterations", in.MaxIterations)
	log.Info("starting reputation decay", "iteration", in.StartIteration)

	c.seedReputation(ctx, in.UserID)

	for {
		if err := c.sleep(ctx, in.Interval); err != nil {
			return models.DecayResult{}, err
		}

		if c.IsCancelled() {
			log.Info("decay cancelled", "iterations_completed", c.Iteration())
			return models.DecayResult{
				UserID:              in.UserID,
				IterationsCompleted: c.Iteration(),
				FinalReputation:     c.CurrentReputation(),
				StoppedReason:       models.DecayStopCancelled,
			}, nil
		}

		// A failed decay write is tolerated: the iteration still advances
		// and the value catches up on the next interval.
		if newRep, err := c.applyDecay(ctx, in.UserID); err != nil {
			log.Error("decay activity failed", "error", err)
		} else {
			c.mu.Lock()
			c.reputation = newRep
			c.mu.Unlock()
			log.Info("reputation decayed", "reputation", newRep)
		}

		c.mu.Lock()
		c.iteration++
		iter := c.iteration
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.DecayIterations.Inc()
		}

		if iter >= in.MaxIterations {
			log.Info("decay reached max iterations")
			return models.DecayResult{
				UserID:              in.UserID,
				IterationsCompleted: iter,
				FinalReputation:     c.CurrentReputation(),
				StoppedReason:       models.DecayStopMaxIterations,
			}, nil
		}

		cp := models.DecayCheckpoint{
			UserID:        in.UserID,
			Iteration:     iter,
			Interval:      in.Interval,
			MaxIterations: in.MaxIterations,
			UpdatedAt:     requestcontext.Now(ctx),
		}
		err := retry.Do(ctx, c.writePolicy, func() error {
			return c.checkpoints.SaveDecay(ctx, cp)
		}, nil)
		if err != nil {
			if ctx.Err() != nil {
				return models.DecayResult{}, ctx.Err()
			}
			log.Error("decay checkpoint write failed", "iteration", iter, "error", err)
		}
	}
}

// sleep waits for the interval, waking early on cancellation.
func (c *Cycle) sleep(ctx context.Context, interval time.Duration) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-c.cancelCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyDecay reads the current reputation, damps it, and writes it back.
// A user with no reputation yet decays from zero, which stays zero.
func (c *Cycle) applyDecay(ctx context.Context, userID id.UserID) (float64, error) {
	var current float64
	err := retry.Do(ctx, retry.FastRead(), func() error {
		var e error
		current, e = c.scores.Reputation(ctx, userID)
		if errors.Is(e, sentinel.ErrNotFound) {
			current = 0
			return nil
		}
		return e
	}, nil)
	if err != nil {
		return 0, err
	}

	newRep := Apply(current)
	err = retry.Do(ctx, c.writePolicy, func() error {
		return c.scores.SaveReputation(ctx, userID, newRep)
	}, nil)
	if err != nil {
		return 0, err
	}
	return newRep, nil
}

func (c *Cycle) seedReputation(ctx context.Context, userID id.UserID) {
	current, err := c.scores.Reputation(ctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.Warn("initial reputation read failed", "user_id", userID, "error", err)
		}
		return
	}
	c.mu.Lock()
	c.reputation = current
	c.mu.Unlock()
}

// Apply dampens one reputation value by the decay factor, floored at zero
// and rounded to 2 decimals.
func Apply(current float64) float64 {
	decayed := math.Max(current*Factor, 0)
	return math.Round(decayed*100) / 100
}
