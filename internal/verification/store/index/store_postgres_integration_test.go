//go:build integration

package index_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vouch/internal/verification/models"
	"vouch/internal/verification/store/index"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/tx"
	"vouch/pkg/testutil/containers"
)

type PostgresIndexSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *sql.DB
	store    *index.PostgresStore
}

func TestPostgresIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIndexSuite))
}

func (s *PostgresIndexSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	db, err := sql.Open("postgres", s.postgres.URL)
	s.Require().NoError(err)
	s.db = db
	s.T().Cleanup(func() { _ = db.Close() })

	s.store = index.NewPostgres(db)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresIndexSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "session_index"))
}

func (s *PostgresIndexSuite) entry(userID id.UserID, status models.SessionStatus) index.Entry {
	return index.Entry{
		SessionID:   id.NewSessionID(),
		UserID:      userID,
		Status:      status,
		TargetScore: 60,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		MethodCount: 0,
	}
}

func (s *PostgresIndexSuite) TestUpsertIsValueIdempotent() {
	ctx := context.Background()
	entry := s.entry(id.NewUserID(), models.StatusRunning)

	s.Require().NoError(s.store.Upsert(ctx, entry))
	s.Require().NoError(s.store.Upsert(ctx, entry))

	got, err := s.store.List(ctx, index.Filter{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
}

func (s *PostgresIndexSuite) TestUpsertReplacesStatusAndCount() {
	ctx := context.Background()
	entry := s.entry(id.NewUserID(), models.StatusRunning)
	s.Require().NoError(s.store.Upsert(ctx, entry))

	entry.Status = models.StatusCompleted
	entry.MethodCount = 3
	s.Require().NoError(s.store.Upsert(ctx, entry))

	got, err := s.store.List(ctx, index.Filter{Status: models.StatusCompleted})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(3, got[0].MethodCount)
}

func (s *PostgresIndexSuite) TestListFiltersByUser() {
	ctx := context.Background()
	alice := id.NewUserID()
	s.Require().NoError(s.store.Upsert(ctx, s.entry(alice, models.StatusRunning)))
	s.Require().NoError(s.store.Upsert(ctx, s.entry(id.NewUserID(), models.StatusRunning)))

	got, err := s.store.List(ctx, index.Filter{UserID: alice})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(alice, got[0].UserID)
}

func (s *PostgresIndexSuite) TestUpsertJoinsCallerTransaction() {
	ctx := context.Background()
	entry := s.entry(id.NewUserID(), models.StatusRunning)

	// A rolled-back transaction leaves no row behind.
	sentinel := errors.New("abort")
	err := tx.Run(ctx, s.db, func(ctx context.Context) error {
		if err := s.store.Upsert(ctx, entry); err != nil {
			return err
		}
		return sentinel
	})
	s.Require().ErrorIs(err, sentinel)

	got, err := s.store.List(ctx, index.Filter{})
	s.Require().NoError(err)
	s.Empty(got)

	// A committed transaction persists the row.
	err = tx.Run(ctx, s.db, func(ctx context.Context) error {
		return s.store.Upsert(ctx, entry)
	})
	s.Require().NoError(err)

	got, err = s.store.List(ctx, index.Filter{})
	s.Require().NoError(err)
	s.Len(got, 1)
}
