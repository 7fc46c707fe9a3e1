// Package inperson runs the in-person verification sub-process: find a
// verifier near the user, book the first matching slot, then wait days for
// the verifier's completion signal. Scheduling is never retried; booking the
// same appointment twice is worse than failing the method.
package inperson

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/retry"
	"vouch/pkg/requestcontext"
)

// State is the coordinator's observable phase.
type State string

const (
	StateFindingVerifier    State = "finding_verifier"
	StateScheduling         State = "scheduling"
	StateAwaitingCompletion State = "awaiting_completion"
	StateSucceeded          State = "succeeded"
	StateTimedOut           State = "timed_out"
	StateFailed             State = "failed"
)

// FailureNoVerifier marks the fail-fast outcome when discovery finds nobody.
const FailureNoVerifier = "no_verifier"

// DefaultCompletionWindow is how long a scheduled appointment may stay open.
const DefaultCompletionWindow = 7 * 24 * time.Hour

// Input describes one in-person verification attempt.
type Input struct {
	UserID            id.UserID
	SessionID         id.SessionID
	PreferredLocation string
	PreferredSlots    []time.Time
	CompletionWindow  time.Duration
}

// Completion is the verifier's completion signal payload.
type Completion struct {
	VerifierID id.VerifierID
	Date       time.Time
}

// Result is the coordinator's terminal report.
type Result struct {
	Success              bool
	AppointmentScheduled bool
	VerifierID           id.VerifierID
	VerificationDate     time.Time
	Location             string
	Evidence             map[string]any
	ErrorDetail          string
}

// Coordinator drives one in-person verification to a terminal state.
type Coordinator struct {
	directory activities.VerifierDirectory
	evidence  activities.EvidenceStore
	logger    *slog.Logger

	readPolicy retry.Policy
	onRetry    func()

	completions chan Completion

	mu          sync.RWMutex
	state       State
	appointment *models.Appointment
	completed   bool
	completedBy id.VerifierID
	completedAt time.Time
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithRetryPolicy(read retry.Policy) Option {
	return func(c *Coordinator) {
		c.readPolicy = read
	}
}

func WithRetryObserver(fn func()) Option {
	return func(c *Coordinator) {
		c.onRetry = fn
	}
}

func New(directory activities.VerifierDirectory, evidence activities.EvidenceStore, opts ...Option) (*Coordinator, error) {
	if directory == nil {
		return nil, fmt.Errorf("verifier directory is required")
	}
	if evidence == nil {
		return nil, fmt.Errorf("evidence store is required")
	}

	c := &Coordinator{
		directory:   directory,
		evidence:    evidence,
		logger:      slog.Default(),
		readPolicy:  retry.FastRead(),
		completions: make(chan Completion, 1),
		state:       StateFindingVerifier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete delivers the verifier's completion signal. Only the first signal
// counts; later ones are dropped.
func (c *Coordinator) Complete(completion Completion) {
	select {
	case c.completions <- completion:
	default:
	}
}

// State returns the current observable phase.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Status snapshots the appointment for the query surface.
func (c *Coordinator) Status() models.AppointmentState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := models.AppointmentState{
		Scheduled: c.appointment != nil,
		Completed: c.completed,
	}
	if c.completed {
		st.VerifierID = c.completedBy
		st.Date = c.completedAt
	} else if c.appointment != nil {
		st.VerifierID = c.appointment.VerifierID
		st.Date = c.appointment.ScheduledTime
	}
	return st
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes find, schedule, await. The returned error is non-nil only for
// cancellation; discovery and scheduling failures land in Result.ErrorDetail.
func (c *Coordinator) Run(ctx context.Context, in Input) (Result, error) {
	if in.CompletionWindow <= 0 {
		in.CompletionWindow = DefaultCompletionWindow
	}
	log := c.logger.With("user_id", in.UserID, "session_id", in.SessionID, "location", in.PreferredLocation)
	log.Info("starting in-person verification")

	var verifiers []models.Verifier
	err := retry.Do(ctx, c.readPolicy, func() error {
		var e error
		verifiers, e = c.directory.FindVerifiers(ctx, in.PreferredLocation)
		return e
	}, c.notifyRetry)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.setState(StateFailed)
		return c.fail(ctx, in, fmt.Sprintf("verifier discovery failed: %v", err)), nil
	}
	if len(verifiers) == 0 {
		log.Warn("no verifiers available")
		c.setState(StateFailed)
		return c.fail(ctx, in, FailureNoVerifier), nil
	}
	log.Info("found verifiers", "count", len(verifiers))

	c.setState(StateScheduling)
	slot := firstSlot(in, verifiers[0], requestcontext.Now(ctx))
	appointment, err := c.directory.ScheduleAppointment(ctx, in.UserID, verifiers[0].VerifierID, slot)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.setState(StateFailed)
		return c.fail(ctx, in, fmt.Sprintf("scheduling failed: %v", err)), nil
	}

	c.mu.Lock()
	c.appointment = &appointment
	c.state = StateAwaitingCompletion
	c.mu.Unlock()
	log.Info("appointment scheduled", "verifier_id", appointment.VerifierID, "scheduled_time", appointment.ScheduledTime)

	completion, completed, err := c.await(ctx, in.CompletionWindow)
	if err != nil {
		return Result{}, err
	}
	if !completed {
		log.Warn("appointment completion window elapsed")
		c.setState(StateTimedOut)
		return Result{
			AppointmentScheduled: true,
			VerifierID:           appointment.VerifierID,
			Location:             in.PreferredLocation,
			ErrorDetail:          "completion window elapsed",
			Evidence: map[string]any{
				"error":          "appointment timeout",
				"scheduled_time": appointment.ScheduledTime.UTC().Format(time.RFC3339),
				"timestamp":      requestcontext.Now(ctx).UTC().Format(time.RFC3339),
			},
		}, nil
	}

	c.mu.Lock()
	c.completed = true
	c.completedBy = completion.VerifierID
	c.completedAt = completion.Date
	c.mu.Unlock()

	evidence := map[string]any{
		"verifier_id":       completion.VerifierID.String(),
		"verification_date": completion.Date.UTC().Format(time.RFC3339),
		"location":          in.PreferredLocation,
		"scheduled_time":    appointment.ScheduledTime.UTC().Format(time.RFC3339),
		"timestamp":         requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	}
	storeErr := retry.Do(ctx, c.readPolicy, func() error {
		return c.evidence.StoreEvidence(ctx, in.SessionID, id.MethodInPerson, evidence)
	}, c.notifyRetry)
	if storeErr != nil && ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if storeErr != nil {
		log.Warn("evidence storage failed", "error", storeErr)
	}

	c.setState(StateSucceeded)
	log.Info("in-person verification completed", "verifier_id", completion.VerifierID)
	return Result{
		Success:              true,
		AppointmentScheduled: true,
		VerifierID:           completion.VerifierID,
		VerificationDate:     completion.Date,
		Location:             in.PreferredLocation,
		Evidence:             evidence,
	}, nil
}

// await blocks until the completion signal, the window elapsing, or
// cancellation. A signal already queued when the timer fires wins the race.
func (c *Coordinator) await(ctx context.Context, window time.Duration) (Completion, bool, error) {
	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case completion := <-c.completions:
		return completion, true, nil
	case <-timer.C:
		select {
		case completion := <-c.completions:
			return completion, true, nil
		default:
			return Completion{}, false, nil
		}
	case <-ctx.Done():
		return Completion{}, false, ctx.Err()
	}
}

func (c *Coordinator) fail(ctx context.Context, in Input, detail string) Result {
	return Result{
		Location:    in.PreferredLocation,
		ErrorDetail: detail,
		Evidence: map[string]any{
			"error":     detail,
			"timestamp": requestcontext.Now(ctx).UTC().Format(time.RFC3339),
		},
	}
}

func (c *Coordinator) notifyRetry(err error, next time.Duration) {
	if c.onRetry != nil {
		c.onRetry()
	}
}

// firstSlot picks the user's first preferred slot, falling back to the
// verifier's first available one, then to a day out from now.
func firstSlot(in Input, verifier models.Verifier, now time.Time) time.Time {
	if len(in.PreferredSlots) > 0 {
		return in.PreferredSlots[0]
	}
	if len(verifier.AvailableSlots) > 0 {
		return verifier.AvailableSlots[0]
	}
	return now.Add(24 * time.Hour)
}
