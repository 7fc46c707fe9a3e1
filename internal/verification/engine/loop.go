package engine

import (
	"context"
	"time"

	"vouch/internal/verification/events"
	"vouch/internal/verification/models"
	"vouch/internal/verification/score"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/retry"
)

// Run consumes the mailbox until the session reaches a terminal state or ctx
// is cancelled. Signals queued when the deadline fires are drained first, so
// an explicit signal always beats the timeout. Run must be the only caller
// mutating e.session.
func (e *Engine) Run(ctx context.Context) error {
	if e.alreadyFinished {
		return nil
	}
	if e.metrics != nil {
		e.metrics.LiveSessions.Inc()
		defer e.metrics.LiveSessions.Dec()
	}

	deadline := time.NewTimer(time.Until(e.session.Deadline))
	defer deadline.Stop()

	for {
		select {
		case sig := <-e.mailbox:
			if err := e.handle(ctx, sig); err != nil {
				e.logger.Error("signal handling failed",
					"session_id", e.session.SessionID, "kind", sig.kind, "error", err)
			}
		case <-deadline.C:
			// Drain signals that raced the deadline; they win the tie.
			for drained := true; drained && !e.session.Status.Terminal(); {
				select {
				case sig := <-e.mailbox:
					if err := e.handle(ctx, sig); err != nil {
						e.logger.Error("signal handling failed",
							"session_id", e.session.SessionID, "kind", sig.kind, "error", err)
					}
				default:
					drained = false
				}
			}
			if !e.session.Status.Terminal() {
				e.logger.Info("session deadline elapsed", "session_id", e.session.SessionID)
				if err := e.finish(ctx, models.StatusTimedOut); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			// State is durable in the log; a later Resume picks up here.
			return ctx.Err()
		}

		if e.session.Status.Terminal() {
			return nil
		}
	}
}

func (e *Engine) handle(ctx context.Context, sig signal) error {
	if e.metrics != nil {
		e.metrics.IncrementSignals(string(sig.kind))
	}
	switch sig.kind {
	case signalSubmitMethod:
		return e.recordMethod(ctx, sig.record)
	case signalRecomputeTrust:
		return e.recomputeTrust(ctx)
	case signalCancel:
		return e.finish(ctx, models.StatusCancelled)
	}
	return nil
}

// recordMethod upserts the record, re-aggregates, appends the event, then
// persists the new score. Append-before-apply: a failed append leaves state
// untouched and the signal is effectively dropped.
func (e *Engine) recordMethod(ctx context.Context, record models.MethodRecord) error {
	record.CompletedAt = e.now(ctx)

	// Aggregate against a copy so the committed state only changes after the
	// event is durably appended.
	trial := e.session.MethodsCopy()
	trialSession := models.VerificationSession{Methods: trial}
	trialSession.UpsertMethod(record)
	newScore := score.Aggregate(trialSession.Methods)

	if err := e.append(ctx, events.MethodRecorded{Record: record, NewScore: newScore}); err != nil {
		return err
	}

	e.session.UpsertMethod(record)
	e.session.CurrentScore = newScore
	e.publish()
	e.updateIndex(ctx)
	if e.metrics != nil {
		e.metrics.IncrementMethodsRecorded(string(record.Method))
	}
	e.logger.Info("method recorded",
		"session_id", e.session.SessionID, "method", record.Method,
		"weight", record.Weight, "score", newScore)

	if err := e.persistScore(ctx, newScore); err != nil {
		e.logger.Warn("score persistence failed, will retry on next write",
			"session_id", e.session.SessionID, "error", err)
	}
	e.notifyMethod(ctx, record, newScore)

	if newScore >= e.session.TargetScore {
		return e.finish(ctx, models.StatusCompleted)
	}
	return nil
}

func (e *Engine) notifyMethod(ctx context.Context, record models.MethodRecord, newScore float64) {
	if e.notifier == nil {
		return
	}
	payload := map[string]any{
		"session_id": e.session.SessionID.String(),
		"method":     string(record.Method),
		"weight":     record.Weight,
		"new_score":  newScore,
	}
	if err := e.notifier.Notify(ctx, e.session.UserID, "method_completed", payload); err != nil {
		e.logger.Warn("method notification failed",
			"session_id", e.session.SessionID, "method", record.Method, "error", err)
	}
}

// recomputeTrust re-evaluates the trust network and, when the bonus is
// positive, feeds it through the same recording path as any other method.
func (e *Engine) recomputeTrust(ctx context.Context) error {
	bonus, err := e.trustBonus(ctx)
	if err != nil {
		return err
	}
	if bonus <= 0 {
		e.logger.Info("trust network bonus is zero, nothing to record",
			"session_id", e.session.SessionID)
		return nil
	}
	return e.recordMethod(ctx, models.MethodRecord{
		Method: id.MethodTrustNetwork,
		Weight: bonus,
		Evidence: map[string]any{
			"source": "trust_network_evaluation",
		},
	})
}

func (e *Engine) trustBonus(ctx context.Context) (float64, error) {
	var connections []models.TrustConnection
	err := retry.Do(ctx, retry.FastRead(), func() error {
		var er error
		connections, er = e.trust.Connections(ctx, e.session.UserID)
		return er
	}, e.countRetry)
	if err != nil {
		return 0, err
	}
	if len(connections) == 0 {
		return 0, nil
	}

	trusted := make([]id.UserID, 0, len(connections))
	for _, c := range connections {
		trusted = append(trusted, c.TrustedUserID)
	}
	var trustedScores map[id.UserID]float64
	err = retry.Do(ctx, retry.FastRead(), func() error {
		var er error
		trustedScores, er = e.scores.ScoresFor(ctx, trusted)
		return er
	}, e.countRetry)
	if err != nil {
		return 0, err
	}

	return score.TrustStrength(connections, trustedScores), nil
}

// finish drives the terminal path: one last trust check, one last
// aggregation, final score persistence, then the completion notification.
// Cancellation skips only the notification.
func (e *Engine) finish(ctx context.Context, status models.SessionStatus) error {
	if err := models.ValidateTransition(e.session.Status, status); err != nil {
		return err
	}

	// Final trust network check. Failure here degrades the final score, it
	// never blocks termination.
	if bonus, err := e.trustBonus(ctx); err != nil {
		e.logger.Warn("final trust check failed",
			"session_id", e.session.SessionID, "error", err)
	} else if bonus > 0 {
		record := models.MethodRecord{
			Method:      id.MethodTrustNetwork,
			Weight:      bonus,
			Evidence:    map[string]any{"source": "final_trust_evaluation"},
			CompletedAt: e.now(ctx),
		}
		if err := e.append(ctx, events.MethodRecorded{Record: record, NewScore: 0}); err == nil {
			e.session.UpsertMethod(record)
		}
	}

	// Final aggregation over whatever made it into the method set.
	finalScore := score.Aggregate(e.session.Methods)
	e.session.CurrentScore = finalScore

	now := e.now(ctx)
	if err := e.append(ctx, events.SessionFinished{
		Status:     status,
		FinalScore: finalScore,
		FinishedAt: now,
	}); err != nil {
		return err
	}

	e.session.Status = status
	e.session.FinishedAt = now

	if err := e.persistScore(ctx, finalScore); err != nil {
		e.logger.Warn("final score persistence failed",
			"session_id", e.session.SessionID, "error", err)
	}

	result := models.Result{
		UserID:           e.session.UserID,
		FinalScore:       finalScore,
		MethodsCompleted: e.session.MethodsCopy(),
		CompletedAt:      now,
		Status:           status,
	}
	if e.attestor != nil && status == models.StatusCompleted {
		attestation, err := e.attestor.Attest(ctx, result)
		if err != nil {
			e.logger.Warn("attestation signing failed",
				"session_id", e.session.SessionID, "error", err)
		} else {
			result.Attestation = attestation
		}
	}

	if status != models.StatusCancelled {
		e.notifyCompletion(ctx, result)
	}

	e.result.Store(&result)
	e.publish()
	e.updateIndex(ctx)
	close(e.done)
	if e.metrics != nil {
		e.metrics.IncrementSessionsFinished(string(status))
	}
	e.logger.Info("verification session finished",
		"session_id", e.session.SessionID, "status", status,
		"final_score", finalScore, "methods", len(e.session.Methods))
	return nil
}

func (e *Engine) persistScore(ctx context.Context, value float64) error {
	return retry.Do(ctx, e.writePolicy, func() error {
		return e.scores.SaveScore(ctx, e.session.UserID, value)
	}, e.countRetry)
}

func (e *Engine) notifyCompletion(ctx context.Context, result models.Result) {
	if e.notifier == nil {
		return
	}
	payload := map[string]any{
		"session_id":  e.session.SessionID.String(),
		"final_score": result.FinalScore,
		"status":      string(result.Status),
		"methods":     len(result.MethodsCompleted),
	}
	err := retry.Do(ctx, retry.FastRead(), func() error {
		return e.notifier.Notify(ctx, e.session.UserID, "verification_completed", payload)
	}, e.countRetry)
	if err != nil {
		e.logger.Warn("completion notification failed",
			"session_id", e.session.SessionID, "error", err)
	}
}

// append seals the payload with the next sequence number and writes it. A
// duplicate (session, seq) means the write already happened on a previous
// attempt, which is success.
func (e *Engine) append(ctx context.Context, payload any) error {
	env, err := events.Seal(e.session.SessionID, e.seq+1, e.now(ctx), payload)
	if err != nil {
		return err
	}
	err = retry.Do(ctx, e.writePolicy, func() error {
		_, er := e.log.Append(ctx, env)
		return er
	}, e.countRetry)
	if err != nil {
		return err
	}
	e.seq++
	return nil
}

func (e *Engine) countRetry(err error, next time.Duration) {
	if e.metrics != nil {
		e.metrics.ActivityRetries.Inc()
	}
}

// replay folds a session's log into fresh state.
func (e *Engine) replay(ctx context.Context, sessionID id.SessionID) error {
	log, err := e.log.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(log) == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "no events for session %s", sessionID)
	}

	e.session = &models.VerificationSession{SessionID: sessionID, Status: models.StatusRunning}
	for _, env := range log {
		if err := e.apply(env); err != nil {
			return err
		}
		e.seq = env.Seq
	}
	if e.session.Status.Terminal() {
		e.alreadyFinished = true
		e.result.Store(&models.Result{
			UserID:           e.session.UserID,
			FinalScore:       e.session.CurrentScore,
			MethodsCompleted: e.session.MethodsCopy(),
			CompletedAt:      e.session.FinishedAt,
			Status:           e.session.Status,
		})
		close(e.done)
	}
	return nil
}

func (e *Engine) apply(env events.Envelope) error {
	switch env.Kind {
	case events.KindSessionStarted:
		var p events.SessionStarted
		if err := events.Open(env, &p); err != nil {
			return err
		}
		e.session.UserID = p.UserID
		e.session.TargetScore = p.TargetScore
		e.session.Deadline = p.Deadline
		e.session.CreatedAt = p.CreatedAt
	case events.KindMethodRecorded:
		var p events.MethodRecorded
		if err := events.Open(env, &p); err != nil {
			return err
		}
		e.session.UpsertMethod(p.Record)
		if p.NewScore > 0 {
			e.session.CurrentScore = p.NewScore
		}
	case events.KindSessionFinished:
		var p events.SessionFinished
		if err := events.Open(env, &p); err != nil {
			return err
		}
		e.session.Status = p.Status
		e.session.CurrentScore = p.FinalScore
		e.session.FinishedAt = p.FinishedAt
	default:
		return dErrors.Newf(dErrors.CodeInternal, "unknown event kind %q at seq %d", env.Kind, env.Seq)
	}
	return nil
}
