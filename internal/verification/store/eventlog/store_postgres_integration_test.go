//go:build integration

package eventlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/verification/events"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store/eventlog"
	id "vouch/pkg/domain"
	"vouch/pkg/testutil/containers"
)

type PostgresEventLogSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *eventlog.PostgresStore
}

func TestPostgresEventLogSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresEventLogSuite))
}

func (s *PostgresEventLogSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = eventlog.NewPostgres(s.postgres.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresEventLogSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "session_events"))
}

func (s *PostgresEventLogSuite) seal(sessionID id.SessionID, seq int64, payload any) events.Envelope {
	env, err := events.Seal(sessionID, seq, time.Now().UTC(), payload)
	s.Require().NoError(err)
	return env
}

func (s *PostgresEventLogSuite) TestAppendConflictReportsNotInserted() {
	ctx := context.Background()
	sessionID := id.NewSessionID()
	env := s.seal(sessionID, 1, events.SessionStarted{UserID: id.NewUserID(), TargetScore: 60})

	inserted, err := s.store.Append(ctx, env)
	s.Require().NoError(err)
	s.True(inserted)

	inserted, err = s.store.Append(ctx, env)
	s.Require().NoError(err)
	s.False(inserted)
}

func (s *PostgresEventLogSuite) TestRoundTripPreservesOrderAndPayload() {
	ctx := context.Background()
	sessionID := id.NewSessionID()
	userID := id.NewUserID()

	started := s.seal(sessionID, 1, events.SessionStarted{
		UserID: userID, TargetScore: 60, Deadline: time.Now().UTC().Add(time.Hour),
	})
	recorded := s.seal(sessionID, 2, events.MethodRecorded{
		Record:   models.MethodRecord{Method: id.MethodCommunity, Weight: 20, CompletedAt: time.Now().UTC()},
		NewScore: 20,
	})

	for _, env := range []events.Envelope{recorded, started} {
		_, err := s.store.Append(ctx, env)
		s.Require().NoError(err)
	}

	log, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(log, 2)
	s.Equal(events.KindSessionStarted, log[0].Kind)
	s.Equal(events.KindMethodRecorded, log[1].Kind)

	var payload events.MethodRecorded
	s.Require().NoError(events.Open(log[1], &payload))
	s.Equal(id.MethodCommunity, payload.Record.Method)
	s.Equal(20.0, payload.Record.Weight)
}

func (s *PostgresEventLogSuite) TestOpenSessions() {
	ctx := context.Background()
	open := id.NewSessionID()
	closed := id.NewSessionID()

	_, err := s.store.Append(ctx, s.seal(open, 1, events.SessionStarted{UserID: id.NewUserID()}))
	s.Require().NoError(err)
	_, err = s.store.Append(ctx, s.seal(closed, 1, events.SessionStarted{UserID: id.NewUserID()}))
	s.Require().NoError(err)
	_, err = s.store.Append(ctx, s.seal(closed, 2, events.SessionFinished{
		Status: models.StatusCancelled, FinishedAt: time.Now().UTC(),
	}))
	s.Require().NoError(err)

	openIDs, err := s.store.OpenSessions(ctx)
	s.Require().NoError(err)
	s.Equal([]id.SessionID{open}, openIDs)
}
