// Package engine runs one durable verification session as an event-sourced
// state machine. Every accepted signal is appended to the event log before it
// touches in-memory state; a single goroutine consumes the mailbox, so all
// mutations are serialized and queries read an atomically published snapshot.
// Folding the log rebuilds the exact same state after a crash.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/events"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/score"
	"vouch/internal/verification/store/eventlog"
	"vouch/internal/verification/store/index"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/retry"
	"vouch/pkg/requestcontext"
)

// Attestor signs a completion attestation for a successfully finished
// session. Optional; sessions finish fine without one.
type Attestor interface {
	Attest(ctx context.Context, result models.Result) (string, error)
}

// Snapshot is the queryable view of a session. Published atomically after
// every state change; readers never block the event loop.
type Snapshot struct {
	SessionID    id.SessionID
	UserID       id.UserID
	Status       models.SessionStatus
	CurrentScore float64
	TargetScore  float64
	Deadline     time.Time
	Methods      []models.MethodRecord
	Progress     float64
}

// StartInput opens a new session.
type StartInput struct {
	SessionID   id.SessionID
	UserID      id.UserID
	TargetScore float64
	Deadline    time.Time
	// InitialMethods is an advisory hint of which methods the caller plans
	// to attempt. It does not pre-record anything.
	InitialMethods []id.MethodType
}

type signalKind string

const (
	signalSubmitMethod   signalKind = "submit_method"
	signalRecomputeTrust signalKind = "recompute_trust"
	signalCancel         signalKind = "cancel"
)

type signal struct {
	kind   signalKind
	record models.MethodRecord
}

// Engine owns one session. Construct with Start or Resume, then call Run on
// its own goroutine; signals and queries are safe from any goroutine.
type Engine struct {
	log      eventlog.Store
	scores   activities.ScoreStore
	trust    activities.TrustGraph
	notifier activities.Notifier
	idx      index.Store
	attestor Attestor
	logger   *slog.Logger
	metrics  *metrics.Metrics

	writePolicy retry.Policy

	mailbox chan signal
	done    chan struct{}

	// Owned by the Run goroutine.
	session *models.VerificationSession
	seq     int64

	snapshot atomic.Pointer[Snapshot]
	result   atomic.Pointer[models.Result]

	// Set only when resuming a session whose log is already terminal.
	alreadyFinished bool
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithNotifier(n activities.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithIndex(s index.Store) Option {
	return func(e *Engine) { e.idx = s }
}

func WithAttestor(a Attestor) Option {
	return func(e *Engine) { e.attestor = a }
}

func WithWritePolicy(p retry.Policy) Option {
	return func(e *Engine) { e.writePolicy = p }
}

func newEngine(log eventlog.Store, scores activities.ScoreStore, trust activities.TrustGraph, opts ...Option) (*Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("event log is required")
	}
	if scores == nil {
		return nil, fmt.Errorf("score store is required")
	}
	if trust == nil {
		return nil, fmt.Errorf("trust graph is required")
	}

	e := &Engine{
		log:         log,
		scores:      scores,
		trust:       trust,
		logger:      slog.Default(),
		writePolicy: retry.Standard(),
		mailbox:     make(chan signal, 64),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start opens a brand-new session, appending its started event before
// returning. target is clamped to 100; a negative target is rejected.
func Start(ctx context.Context, in StartInput, log eventlog.Store, scores activities.ScoreStore, trust activities.TrustGraph, opts ...Option) (*Engine, error) {
	if in.TargetScore < 0 {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "target score %.2f is negative", in.TargetScore)
	}
	if in.SessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "session id is required")
	}
	if in.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if in.Deadline.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deadline is required")
	}

	e, err := newEngine(log, scores, trust, opts...)
	if err != nil {
		return nil, err
	}

	now := e.now(ctx)
	e.session = &models.VerificationSession{
		SessionID:   in.SessionID,
		UserID:      in.UserID,
		TargetScore: min(in.TargetScore, score.MaxComposite),
		Deadline:    in.Deadline,
		Status:      models.StatusRunning,
		CreatedAt:   now,
	}

	if err := e.append(ctx, events.SessionStarted{
		UserID:      in.UserID,
		TargetScore: e.session.TargetScore,
		Deadline:    in.Deadline,
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	e.publish()
	e.updateIndex(ctx)
	if e.metrics != nil {
		e.metrics.IncrementSessionsStarted()
	}
	e.logger.Info("verification session started",
		"session_id", in.SessionID, "user_id", in.UserID,
		"target_score", e.session.TargetScore, "deadline", in.Deadline,
		"planned_methods", in.InitialMethods)
	return e, nil
}

// Resume rebuilds an engine from a session's event log. Terminal sessions
// come back queryable; their Run returns immediately.
func Resume(ctx context.Context, sessionID id.SessionID, log eventlog.Store, scores activities.ScoreStore, trust activities.TrustGraph, opts ...Option) (*Engine, error) {
	e, err := newEngine(log, scores, trust, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.replay(ctx, sessionID); err != nil {
		return nil, err
	}
	e.publish()
	e.logger.Info("verification session resumed",
		"session_id", sessionID, "status", e.session.Status,
		"score", e.session.CurrentScore, "events", e.seq)
	return e, nil
}

// SubmitMethod queues an idempotent method upsert. Weight outside [0,100] or
// an unknown method type is rejected before anything is queued.
func (e *Engine) SubmitMethod(method id.MethodType, weight float64, evidence map[string]any) error {
	if !method.Valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown method type %q", method)
	}
	if weight < 0 || weight > score.MaxComposite {
		return dErrors.Newf(dErrors.CodeInvalidInput, "method weight %.2f outside [0,100]", weight)
	}
	return e.send(signal{kind: signalSubmitMethod, record: models.MethodRecord{
		Method:   method,
		Weight:   weight,
		Evidence: evidence,
	}})
}

// RecomputeTrust queues a trust network re-evaluation.
func (e *Engine) RecomputeTrust() error {
	return e.send(signal{kind: signalRecomputeTrust})
}

// Cancel queues a cancellation. The session transitions to cancelled as soon
// as the loop observes it.
func (e *Engine) Cancel() error {
	return e.send(signal{kind: signalCancel})
}

func (e *Engine) send(s signal) error {
	select {
	case <-e.done:
		return dErrors.Newf(dErrors.CodeConflict, "session %s already finished", e.session.SessionID)
	default:
	}
	select {
	case e.mailbox <- s:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "session mailbox full")
	}
}

// View returns the current snapshot.
func (e *Engine) View() Snapshot {
	return *e.snapshot.Load()
}

// CurrentScore answers the score query.
func (e *Engine) CurrentScore() float64 {
	return e.snapshot.Load().CurrentScore
}

// MethodsCompleted answers the methods query.
func (e *Engine) MethodsCompleted() []models.MethodRecord {
	return e.snapshot.Load().Methods
}

// ProgressPercentage answers the progress query: min(current/target, 1)×100,
// or 100 when the target is zero.
func (e *Engine) ProgressPercentage() float64 {
	return e.snapshot.Load().Progress
}

// Status returns the session's lifecycle status.
func (e *Engine) Status() models.SessionStatus {
	return e.snapshot.Load().Status
}

// Done is closed once the session reaches a terminal state.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Result returns the terminal outcome, ok=false while the session is live.
func (e *Engine) Result() (models.Result, bool) {
	r := e.result.Load()
	if r == nil {
		return models.Result{}, false
	}
	return *r, true
}

func (e *Engine) publish() {
	s := e.session
	e.snapshot.Store(&Snapshot{
		SessionID:    s.SessionID,
		UserID:       s.UserID,
		Status:       s.Status,
		CurrentScore: s.CurrentScore,
		TargetScore:  s.TargetScore,
		Deadline:     s.Deadline,
		Methods:      s.MethodsCopy(),
		Progress:     s.Progress(),
	})
}

func (e *Engine) updateIndex(ctx context.Context) {
	if e.idx == nil {
		return
	}
	entry := index.Entry{
		SessionID:   e.session.SessionID,
		UserID:      e.session.UserID,
		Status:      e.session.Status,
		TargetScore: e.session.TargetScore,
		CreatedAt:   e.session.CreatedAt,
		MethodCount: len(e.session.Methods),
	}
	if err := e.idx.Upsert(ctx, entry); err != nil {
		e.logger.Warn("session index update failed", "session_id", e.session.SessionID, "error", err)
	}
}

func (e *Engine) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx)
}
