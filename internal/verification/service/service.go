// Package service is the façade over the verification core: it owns the
// registry of live session engines (one per user), fans signals and queries
// out to them, runs the method coordinators, and fronts the decay supervisor.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/coordinator/community"
	"vouch/internal/verification/coordinator/inperson"
	"vouch/internal/verification/decay"
	"vouch/internal/verification/engine"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store/checkpoint"
	"vouch/internal/verification/store/eventlog"
	"vouch/internal/verification/store/index"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

const tracerName = "vouch.verification"

// Weights applied when a coordinator's 0-100 score becomes a method weight.
const (
	documentWeightScale  = 0.30 // validity score contributes up to 30 points
	communityWeightScale = 0.25 // confidence score contributes up to 25 points
	inPersonWeight       = 30.0 // completed appointment is a fixed 30 points
)

// Deps wires the service's collaborators.
type Deps struct {
	EventLog    eventlog.Store
	Index       index.Store
	Progress    checkpoint.ProgressStore
	Decay       *decay.Supervisor
	Scores      activities.ScoreStore
	Trust       activities.TrustGraph
	Evidence    activities.EvidenceStore
	Validators  activities.ValidatorDirectory
	Verifiers   activities.VerifierDirectory
	Extractor   activities.DocumentExtractor
	Notifier    activities.Notifier
	Attestor    engine.Attestor
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// session bundles one live engine with its child coordinators.
type session struct {
	engine *engine.Engine
	cancel context.CancelFunc

	mu        sync.Mutex
	community *community.Coordinator
	inPerson  *inperson.Coordinator
}

// Service is safe for concurrent use.
type Service struct {
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[id.SessionID]*session
	byUser   map[id.UserID]id.SessionID
}

func New(deps Deps) (*Service, error) {
	if deps.EventLog == nil {
		return nil, fmt.Errorf("event log is required")
	}
	if deps.Scores == nil {
		return nil, fmt.Errorf("score store is required")
	}
	if deps.Trust == nil {
		return nil, fmt.Errorf("trust graph is required")
	}
	if deps.Evidence == nil {
		return nil, fmt.Errorf("evidence store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Service{
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[id.SessionID]*session),
		byUser:   make(map[id.UserID]id.SessionID),
	}, nil
}

// StartRequest opens a verification session.
type StartRequest struct {
	UserID         id.UserID
	TargetScore    float64
	Deadline       time.Time
	InitialMethods []id.MethodType
}

// StartVerification opens and runs a new session for the user. A user with a
// live session gets a conflict; the existing session must finish first.
func (s *Service) StartVerification(ctx context.Context, req StartRequest) (id.SessionID, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.StartVerification",
		trace.WithAttributes(
			attribute.String("user_id", req.UserID.String()),
			attribute.Float64("target_score", req.TargetScore),
		))
	defer span.End()

	s.mu.Lock()
	if existing, ok := s.byUser[req.UserID]; ok {
		s.mu.Unlock()
		return id.SessionID{}, dErrors.Newf(dErrors.CodeConflict,
			"user %s already has live session %s", req.UserID, existing)
	}
	s.mu.Unlock()

	sessionID := id.NewSessionID()
	eng, err := engine.Start(ctx, engine.StartInput{
		SessionID:      sessionID,
		UserID:         req.UserID,
		TargetScore:    req.TargetScore,
		Deadline:       req.Deadline,
		InitialMethods: req.InitialMethods,
	}, s.deps.EventLog, s.deps.Scores, s.deps.Trust, s.engineOptions()...)
	if err != nil {
		span.RecordError(err)
		return id.SessionID{}, err
	}

	s.register(sessionID, req.UserID, eng)
	return sessionID, nil
}

// Rehydrate resumes every open session found in the event log. Called once
// on startup, before the signal surface goes live.
func (s *Service) Rehydrate(ctx context.Context) error {
	open, err := s.deps.EventLog.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("list open sessions: %w", err)
	}
	for _, sessionID := range open {
		eng, err := engine.Resume(ctx, sessionID, s.deps.EventLog, s.deps.Scores, s.deps.Trust, s.engineOptions()...)
		if err != nil {
			s.logger.Error("session rehydration failed", "session_id", sessionID, "error", err)
			continue
		}
		view := eng.View()
		s.register(sessionID, view.UserID, eng)
	}
	if len(open) > 0 {
		s.logger.Info("rehydrated open sessions", "count", len(open))
	}
	return nil
}

func (s *Service) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithLogger(s.logger)}
	if s.deps.Notifier != nil {
		opts = append(opts, engine.WithNotifier(s.deps.Notifier))
	}
	if s.deps.Index != nil {
		opts = append(opts, engine.WithIndex(s.deps.Index))
	}
	if s.deps.Attestor != nil {
		opts = append(opts, engine.WithAttestor(s.deps.Attestor))
	}
	if s.deps.Metrics != nil {
		opts = append(opts, engine.WithMetrics(s.deps.Metrics))
	}
	return opts
}

// register runs the engine loop and releases the per-user slot once the
// session reaches a terminal state. Finished sessions stay queryable.
func (s *Service) register(sessionID id.SessionID, userID id.UserID, eng *engine.Engine) {
	runCtx, cancel := context.WithCancel(context.Background())
	sess := &session{engine: eng, cancel: cancel}

	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.byUser[userID] = sessionID
	s.mu.Unlock()

	go func() {
		if err := eng.Run(runCtx); err != nil && runCtx.Err() == nil {
			s.logger.Error("session loop stopped", "session_id", sessionID, "error", err)
		}
	}()
	go func() {
		select {
		case <-eng.Done():
		case <-runCtx.Done():
			return
		}
		s.mu.Lock()
		if s.byUser[userID] == sessionID {
			delete(s.byUser, userID)
		}
		s.mu.Unlock()
	}()
}

func (s *Service) lookup(sessionID id.SessionID) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown session %s", sessionID)
	}
	return sess, nil
}

// SubmitMethod delivers a method completion signal to the session.
func (s *Service) SubmitMethod(sessionID id.SessionID, method id.MethodType, weight float64, evidence map[string]any) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	return sess.engine.SubmitMethod(method, weight, evidence)
}

// RecomputeTrust delivers a trust re-evaluation signal to the session.
func (s *Service) RecomputeTrust(sessionID id.SessionID) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	return sess.engine.RecomputeTrust()
}

// CancelSession asks the engine to stop. In-flight validation rounds and
// appointments run out their own lifecycle; a method they report afterwards
// is refused by the closed session and logged.
func (s *Service) CancelSession(sessionID id.SessionID) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	return sess.engine.Cancel()
}

// SessionView answers the query surface for one session.
func (s *Service) SessionView(sessionID id.SessionID) (engine.Snapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.engine.View(), nil
}

// CurrentScore answers the score query.
func (s *Service) CurrentScore(sessionID id.SessionID) (float64, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.engine.CurrentScore(), nil
}

// MethodsCompleted answers the methods query.
func (s *Service) MethodsCompleted(sessionID id.SessionID) ([]models.MethodRecord, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.engine.MethodsCompleted(), nil
}

// ProgressPercentage answers the progress query.
func (s *Service) ProgressPercentage(sessionID id.SessionID) (float64, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.engine.ProgressPercentage(), nil
}

// SessionResult returns the terminal outcome once the session finished.
func (s *Service) SessionResult(sessionID id.SessionID) (models.Result, bool, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.Result{}, false, err
	}
	result, ok := sess.engine.Result()
	return result, ok, nil
}

// SessionForUser returns the user's live session, if any.
func (s *Service) SessionForUser(userID id.UserID) (id.SessionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID, ok := s.byUser[userID]
	return sessionID, ok
}

// ListSessions filters the persisted session index.
func (s *Service) ListSessions(ctx context.Context, filter index.Filter) ([]index.Entry, error) {
	if s.deps.Index == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "session index not configured")
	}
	return s.deps.Index.List(ctx, filter)
}

// Shutdown stops every live session loop. Sessions stay resumable through
// their event logs; decay cycles stay resumable through their checkpoints.
func (s *Service) Shutdown() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.cancel()
	}
	s.mu.Unlock()
	if s.deps.Decay != nil {
		s.deps.Decay.Shutdown()
	}
}
