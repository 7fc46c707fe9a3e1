package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/verification/coordinator/community"
	"vouch/internal/verification/coordinator/document"
	"vouch/internal/verification/coordinator/inperson"
	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// VerifyDocument runs a document verification for the session and, when the
// document passes, records the scaled validity score as a completed method.
// The call returns once the verification has run to a terminal state.
func (s *Service) VerifyDocument(ctx context.Context, sessionID id.SessionID, documentType, documentRef string) (document.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.VerifyDocument",
		trace.WithAttributes(
			attribute.String("session_id", sessionID.String()),
			attribute.String("document_type", documentType),
		))
	defer span.End()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return document.Result{}, err
	}
	view := sess.engine.View()

	coord, err := document.New(s.deps.Extractor, s.deps.Progress, s.deps.Evidence,
		document.WithLogger(s.logger))
	if err != nil {
		return document.Result{}, err
	}
	result, err := coord.Run(ctx, document.Input{
		UserID:       view.UserID,
		SessionID:    sessionID,
		DocumentType: documentType,
		DocumentRef:  documentRef,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "document verification interrupted")
		return document.Result{}, err
	}

	if !result.Success {
		s.logger.Info("document verification did not earn the method",
			"session_id", sessionID, "document_type", documentType, "detail", result.ErrorDetail)
		return result, nil
	}

	weight := result.ValidityScore * documentWeightScale
	if err := sess.engine.SubmitMethod(id.MethodDocument, weight, result.Evidence); err != nil {
		span.RecordError(err)
		return result, err
	}
	return result, nil
}

// RequestCommunityValidation starts a community validation round for the
// session. The round runs in the background; validator responses arrive
// through SubmitValidatorResponse and the outcome, when approving, is
// recorded as a completed method.
func (s *Service) RequestCommunityValidation(ctx context.Context, sessionID id.SessionID, required, poolSize int, window time.Duration) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.RequestCommunityValidation",
		trace.WithAttributes(
			attribute.String("session_id", sessionID.String()),
			attribute.Int("required_validators", required),
		))
	defer span.End()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	view := sess.engine.View()

	coord, err := community.New(s.deps.Validators, s.deps.Evidence,
		community.WithLogger(s.logger))
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.community != nil && sess.community.State() == community.StateAwaitingResponses {
		sess.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "a validation round is already in progress")
	}
	sess.community = coord
	sess.mu.Unlock()

	in := community.Input{
		UserID:             view.UserID,
		SessionID:          sessionID,
		RequiredValidators: required,
		PoolSize:           poolSize,
		ResponseWindow:     window,
	}
	go func() {
		result, err := coord.Run(context.WithoutCancel(ctx), in)
		if err != nil {
			s.logger.Error("community validation interrupted", "session_id", sessionID, "error", err)
			return
		}
		if !result.Success {
			s.logger.Info("community validation did not earn the method",
				"session_id", sessionID, "timed_out", result.TimedOut, "detail", result.ErrorDetail)
			return
		}
		weight := result.ConfidenceScore * communityWeightScale
		if err := sess.engine.SubmitMethod(id.MethodCommunity, weight, result.Evidence); err != nil {
			s.logger.Error("recording community method failed", "session_id", sessionID, "error", err)
		}
	}()
	return nil
}

// SubmitValidatorResponse routes one validator's verdict to the session's
// running validation round.
func (s *Service) SubmitValidatorResponse(sessionID id.SessionID, resp models.ValidatorResponse) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	coord := sess.community
	sess.mu.Unlock()
	if coord == nil {
		return dErrors.New(dErrors.CodeNotFound, "no validation round for session")
	}
	coord.SubmitResponse(resp)
	return nil
}

// ValidationProgress answers the community round query.
func (s *Service) ValidationProgress(sessionID id.SessionID) (models.ValidationProgress, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.ValidationProgress{}, err
	}
	sess.mu.Lock()
	coord := sess.community
	sess.mu.Unlock()
	if coord == nil {
		return models.ValidationProgress{}, dErrors.New(dErrors.CodeNotFound, "no validation round for session")
	}
	return coord.Progress(), nil
}

// RequestInPersonVerification starts an in-person verification for the
// session. Scheduling and the completion wait run in the background; the
// verifier's completion arrives through CompleteInPerson.
func (s *Service) RequestInPersonVerification(ctx context.Context, sessionID id.SessionID, location string, preferredSlots []time.Time, window time.Duration) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "service.RequestInPersonVerification",
		trace.WithAttributes(
			attribute.String("session_id", sessionID.String()),
			attribute.String("location", location),
		))
	defer span.End()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	view := sess.engine.View()

	coord, err := inperson.New(s.deps.Verifiers, s.deps.Evidence,
		inperson.WithLogger(s.logger))
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.inPerson != nil && sess.inPerson.State() == inperson.StateAwaitingCompletion {
		sess.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "an in-person verification is already in progress")
	}
	sess.inPerson = coord
	sess.mu.Unlock()

	in := inperson.Input{
		UserID:            view.UserID,
		SessionID:         sessionID,
		PreferredLocation: location,
		PreferredSlots:    preferredSlots,
		CompletionWindow:  window,
	}
	go func() {
		result, err := coord.Run(context.WithoutCancel(ctx), in)
		if err != nil {
			s.logger.Error("in-person verification interrupted", "session_id", sessionID, "error", err)
			return
		}
		if !result.Success {
			s.logger.Info("in-person verification did not earn the method",
				"session_id", sessionID, "detail", result.ErrorDetail)
			return
		}
		if err := sess.engine.SubmitMethod(id.MethodInPerson, inPersonWeight, result.Evidence); err != nil {
			s.logger.Error("recording in-person method failed", "session_id", sessionID, "error", err)
		}
	}()
	return nil
}

// CompleteInPerson routes a verifier's completion signal to the session's
// in-person verification.
func (s *Service) CompleteInPerson(sessionID id.SessionID, completion inperson.Completion) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	coord := sess.inPerson
	sess.mu.Unlock()
	if coord == nil {
		return dErrors.New(dErrors.CodeNotFound, "no in-person verification for session")
	}
	coord.Complete(completion)
	return nil
}

// AppointmentStatus answers the in-person query.
func (s *Service) AppointmentStatus(sessionID id.SessionID) (models.AppointmentState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.AppointmentState{}, err
	}
	sess.mu.Lock()
	coord := sess.inPerson
	sess.mu.Unlock()
	if coord == nil {
		return models.AppointmentState{}, dErrors.New(dErrors.CodeNotFound, "no in-person verification for session")
	}
	return coord.Status(), nil
}
