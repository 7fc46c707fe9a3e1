// Package community runs the community validation sub-process: ask a bounded
// pool of validators to vouch for a user, collect their responses through an
// asynchronous mailbox, and aggregate them into a confidence score. Social
// processes are one-shot; the coordinator never retries a failed round.
package community

import (
	"context"
	"fmt"
	"log/slog"
	"math"
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
	StateRequesting        State = "requesting"
	StateAwaitingResponses State = "awaiting_responses"
	StateAggregating       State = "aggregating"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
	StateTimedOut          State = "timed_out"
)

// Defaults applied when Input leaves the knobs zero.
const (
	DefaultRequiredValidators = 3
	DefaultPoolSize           = 10
	DefaultResponseWindow     = 72 * time.Hour
)

// Input describes one community validation round.
type Input struct {
	UserID             id.UserID
	SessionID          id.SessionID
	RequiredValidators int
	PoolSize           int
	ResponseWindow     time.Duration
}

func (in *Input) applyDefaults() {
	if in.RequiredValidators <= 0 {
		in.RequiredValidators = DefaultRequiredValidators
	}
	if in.PoolSize <= 0 {
		in.PoolSize = DefaultPoolSize
	}
	if in.ResponseWindow <= 0 {
		in.ResponseWindow = DefaultResponseWindow
	}
}

// Result is the coordinator's terminal report.
type Result struct {
	Success         bool
	Approvals       int
	Rejections      int
	ValidatorIDs    []id.ValidatorID
	ConfidenceScore float64
	TimedOut        bool
	Evidence        map[string]any
	ErrorDetail     string
}

// Coordinator drives one validation round. Responses arrive through
// SubmitResponse and are consumed only by the Run goroutine; Progress reads a
// lock-guarded snapshot and never races with recording.
type Coordinator struct {
	directory activities.ValidatorDirectory
	evidence  activities.EvidenceStore
	logger    *slog.Logger

	readPolicy retry.Policy
	onRetry    func()

	responses chan models.ValidatorResponse

	mu    sync.RWMutex
	state State
	round *models.ValidationRound
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

func New(directory activities.ValidatorDirectory, evidence activities.EvidenceStore, opts ...Option) (*Coordinator, error) {
	if directory == nil {
		return nil, fmt.Errorf("validator directory is required")
	}
	if evidence == nil {
		return nil, fmt.Errorf("evidence store is required")
	}

	c := &Coordinator{
		directory:  directory,
		evidence:   evidence,
		logger:     slog.Default(),
		readPolicy: retry.FastRead(),
		responses:  make(chan models.ValidatorResponse, 64),
		state:      StateRequesting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitResponse delivers a validator's answer to the running round. It never
// blocks the caller; a response arriving after the round closed is dropped.
func (c *Coordinator) SubmitResponse(resp models.ValidatorResponse) {
	select {
	case c.responses <- resp:
	default:
		c.logger.Warn("validator response dropped, mailbox full", "validator_id", resp.ValidatorID)
	}
}

// State returns the current observable phase.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Progress snapshots the round for the query surface. Before the round
// starts it reports zeros.
func (c *Coordinator) Progress() models.ValidationProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.round == nil {
		return models.ValidationProgress{}
	}
	return c.round.Progress()
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes one round to a terminal state. The returned error is non-nil
// only for cancellation.
func (c *Coordinator) Run(ctx context.Context, in Input) (Result, error) {
	in.applyDefaults()
	log := c.logger.With("user_id", in.UserID, "session_id", in.SessionID)
	log.Info("starting community validation", "required", in.RequiredValidators, "pool_size", in.PoolSize)

	var validatorIDs []id.ValidatorID
	err := retry.Do(ctx, c.readPolicy, func() error {
		var e error
		validatorIDs, e = c.directory.SelectValidators(ctx, in.UserID, in.PoolSize)
		return e
	}, c.notifyRetry)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.setState(StateFailed)
		return Result{ErrorDetail: fmt.Sprintf("validator selection failed: %v", err)}, nil
	}
	if len(validatorIDs) == 0 {
		c.setState(StateFailed)
		return Result{ErrorDetail: "no validators available"}, nil
	}
	log.Info("requested validation", "validators", len(validatorIDs))

	c.mu.Lock()
	c.round = models.NewValidationRound(validatorIDs, in.RequiredValidators)
	c.state = StateAwaitingResponses
	c.mu.Unlock()

	timedOut, err := c.collect(ctx, in.ResponseWindow, log)
	if err != nil {
		return Result{}, err
	}

	c.setState(StateAggregating)

	c.mu.RLock()
	approvals := c.round.Approvals()
	rejections := c.round.Rejections()
	responses := c.round.Responses()
	succeeded := c.round.Succeeded()
	c.mu.RUnlock()

	confidence := Confidence(approvals, rejections)
	log.Info("community validation aggregated",
		"approvals", approvals, "rejections", rejections, "confidence", confidence, "timed_out", timedOut)

	evidence := map[string]any{
		"validator_count":     len(validatorIDs),
		"approvals":           approvals,
		"rejections":          rejections,
		"total_responses":     responses,
		"required_validators": in.RequiredValidators,
		"timed_out":           timedOut,
		"timestamp":           requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	}
	storeErr := retry.Do(ctx, c.readPolicy, func() error {
		return c.evidence.StoreEvidence(ctx, in.SessionID, id.MethodCommunity, evidence)
	}, c.notifyRetry)
	if storeErr != nil && ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if storeErr != nil {
		log.Warn("evidence storage failed", "error", storeErr)
	}

	result := Result{
		Success:         succeeded,
		Approvals:       approvals,
		Rejections:      rejections,
		ValidatorIDs:    validatorIDs,
		ConfidenceScore: confidence,
		TimedOut:        timedOut,
		Evidence:        evidence,
	}
	switch {
	case succeeded:
		c.setState(StateSucceeded)
	case timedOut:
		c.setState(StateTimedOut)
		result.ErrorDetail = "response window elapsed before enough approvals"
	default:
		c.setState(StateFailed)
		result.ErrorDetail = "validators rejected the request"
	}
	return result, nil
}

// collect consumes responses until the round completes or the window
// elapses. A response already queued when the timer fires wins the race.
func (c *Coordinator) collect(ctx context.Context, window time.Duration, log *slog.Logger) (timedOut bool, err error) {
	timer := time.NewTimer(window)
	defer timer.Stop()

	for {
		c.mu.RLock()
		done := c.round.Complete()
		c.mu.RUnlock()
		if done {
			return false, nil
		}

		select {
		case resp := <-c.responses:
			c.record(resp, log)
		case <-timer.C:
			// Drain responses that raced the window close; they win the tie.
			for drained := true; drained; {
				select {
				case resp := <-c.responses:
					c.record(resp, log)
				default:
					drained = false
				}
			}
			c.mu.RLock()
			done := c.round.Complete()
			c.mu.RUnlock()
			return !done, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func (c *Coordinator) record(resp models.ValidatorResponse, log *slog.Logger) {
	c.mu.Lock()
	accepted := c.round.Record(resp)
	c.mu.Unlock()
	if !accepted {
		log.Info("duplicate validator response ignored", "validator_id", resp.ValidatorID)
		return
	}
	log.Info("validator responded", "validator_id", resp.ValidatorID, "approved", resp.Approved)
}

func (c *Coordinator) notifyRetry(err error, next time.Duration) {
	if c.onRetry != nil {
		c.onRetry()
	}
}

// Confidence turns raw counts into a 0-100 confidence score: the approval
// percentage damped by how many validators actually answered. Fewer than 3
// responses keep 70%, 3-4 keep 85%, 5 or more keep the full percentage.
func Confidence(approvals, rejections int) float64 {
	total := approvals + rejections
	if total == 0 {
		return 0
	}
	pct := float64(approvals) / float64(total) * 100

	multiplier := 1.0
	switch {
	case total < 3:
		multiplier = 0.70
	case total < 5:
		multiplier = 0.85
	}
	return math.Round(pct*multiplier*100) / 100
}
