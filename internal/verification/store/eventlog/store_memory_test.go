package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/verification/events"
	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

type EventLogSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *EventLogSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestEventLogSuite(t *testing.T) {
	suite.Run(t, new(EventLogSuite))
}

func (s *EventLogSuite) seal(sessionID id.SessionID, seq int64, payload any) events.Envelope {
	env, err := events.Seal(sessionID, seq, time.Now(), payload)
	s.Require().NoError(err)
	return env
}

func (s *EventLogSuite) TestAppendIsIdempotentPerSeq() {
	sessionID := id.NewSessionID()
	env := s.seal(sessionID, 1, events.SessionStarted{UserID: id.NewUserID(), TargetScore: 60})

	inserted, err := s.store.Append(s.ctx, env)
	s.Require().NoError(err)
	s.True(inserted)

	// Retried append after a partial failure must not duplicate history.
	inserted, err = s.store.Append(s.ctx, env)
	s.Require().NoError(err)
	s.False(inserted)

	log, err := s.store.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Len(log, 1)
}

func (s *EventLogSuite) TestListOrdersBySeq() {
	sessionID := id.NewSessionID()
	userID := id.NewUserID()

	// Append out of order; list must come back sorted.
	for _, seq := range []int64{3, 1, 2} {
		var payload any = events.MethodRecorded{
			Record: models.MethodRecord{Method: id.MethodActivity, Weight: float64(seq)},
		}
		if seq == 1 {
			payload = events.SessionStarted{UserID: userID, TargetScore: 50}
		}
		_, err := s.store.Append(s.ctx, s.seal(sessionID, seq, payload))
		s.Require().NoError(err)
	}

	log, err := s.store.ListBySession(s.ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(log, 3)
	for i, env := range log {
		s.Equal(int64(i+1), env.Seq)
	}
}

func (s *EventLogSuite) TestListUnknownSessionIsEmpty() {
	log, err := s.store.ListBySession(s.ctx, id.NewSessionID())
	s.Require().NoError(err)
	s.Empty(log)
}

func (s *EventLogSuite) TestOpenSessionsExcludesFinished() {
	open := id.NewSessionID()
	closed := id.NewSessionID()

	_, err := s.store.Append(s.ctx, s.seal(open, 1, events.SessionStarted{UserID: id.NewUserID()}))
	s.Require().NoError(err)

	_, err = s.store.Append(s.ctx, s.seal(closed, 1, events.SessionStarted{UserID: id.NewUserID()}))
	s.Require().NoError(err)
	_, err = s.store.Append(s.ctx, s.seal(closed, 2, events.SessionFinished{
		Status: models.StatusCompleted, FinalScore: 70, FinishedAt: time.Now(),
	}))
	s.Require().NoError(err)

	openIDs, err := s.store.OpenSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal([]id.SessionID{open}, openIDs)
}
