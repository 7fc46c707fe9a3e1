package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/verification/activities/mocks"
	"vouch/internal/verification/models"
	"vouch/internal/verification/store/eventlog"
	"vouch/internal/verification/store/index"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

type EngineSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	scores   *mocks.MockScoreStore
	trust    *mocks.MockTrustGraph
	notifier *mocks.MockNotifier
	log      *eventlog.InMemoryStore
	idx      *index.InMemoryStore
	logger   *slog.Logger

	userID    id.UserID
	sessionID id.SessionID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.scores = mocks.NewMockScoreStore(s.ctrl)
	s.trust = mocks.NewMockTrustGraph(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.log = eventlog.NewInMemoryStore()
	s.idx = index.NewInMemoryStore()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	s.userID = id.NewUserID()
	s.sessionID = id.NewSessionID()
}

func (s *EngineSuite) TearDownTest() {
	s.ctrl.Finish()
}

// start opens a session with the given target and deadline and runs its loop
// on a background goroutine until the test ends.
func (s *EngineSuite) start(target float64, deadline time.Duration) *Engine {
	e, err := Start(context.Background(), StartInput{
		SessionID:   s.sessionID,
		UserID:      s.userID,
		TargetScore: target,
		Deadline:    time.Now().Add(deadline),
	}, s.log, s.scores, s.trust,
		WithLogger(s.logger),
		WithNotifier(s.notifier),
		WithIndex(s.idx),
	)
	s.Require().NoError(err)

	// Every recorded method produces a progress notification; the tests
	// below only assert on the terminal one.
	s.notifier.EXPECT().
		Notify(gomock.Any(), s.userID, "method_completed", gomock.Any()).
		Return(nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	s.T().Cleanup(cancel)
	return e
}

func (s *EngineSuite) awaitScore(e *Engine, want float64) {
	s.Require().Eventually(func() bool {
		return e.CurrentScore() == want
	}, 2*time.Second, 5*time.Millisecond, "score never reached %.2f (got %.2f)", want, e.CurrentScore())
}

func (s *EngineSuite) awaitDone(e *Engine) models.Result {
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		s.Require().Fail("session never finished")
	}
	result, ok := e.Result()
	s.Require().True(ok)
	return result
}

func (s *EngineSuite) expectNoTrustBonus() {
	s.trust.EXPECT().Connections(gomock.Any(), s.userID).Return(nil, nil).AnyTimes()
}

func (s *EngineSuite) expectScoreWrites() {
	s.scores.EXPECT().SaveScore(gomock.Any(), s.userID, gomock.Any()).Return(nil).AnyTimes()
}

func (s *EngineSuite) TestTargetReachedCompletesSession() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil)

	e := s.start(60, time.Minute)

	s.Require().NoError(e.SubmitMethod(id.MethodCommunity, 20, nil))
	s.awaitScore(e, 20)
	s.Require().NoError(e.SubmitMethod(id.MethodActivity, 15, nil))
	s.awaitScore(e, 35)
	s.Require().NoError(e.SubmitMethod(id.MethodTrustNetwork, 10, nil))
	s.awaitScore(e, 45)

	s.Equal(models.StatusRunning, e.Status())
	s.InDelta(75.0, e.ProgressPercentage(), 0.001)

	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 25, nil))

	result := s.awaitDone(e)
	s.Equal(models.StatusCompleted, result.Status)
	s.Equal(70.0, result.FinalScore)
	s.Len(result.MethodsCompleted, 4)
	s.InDelta(100.0, e.ProgressPercentage(), 0.001)
}

func (s *EngineSuite) TestResubmissionReplacesNotAppends() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()

	e := s.start(90, time.Minute)

	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 10, nil))
	s.awaitScore(e, 10)
	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 30, nil))
	s.awaitScore(e, 30)
	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 20, nil))
	s.awaitScore(e, 20)

	s.Len(e.MethodsCompleted(), 1)
	s.Equal(models.StatusRunning, e.Status())
}

func (s *EngineSuite) TestDeadlineElapsesTimesOut() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil)

	e := s.start(60, 50*time.Millisecond)

	result := s.awaitDone(e)
	s.Equal(models.StatusTimedOut, result.Status)
	s.Equal(0.0, result.FinalScore)
}

func (s *EngineSuite) TestCancelSkipsNotificationButPersistsScore() {
	s.expectNoTrustBonus()
	// The final score is still written on cancellation.
	s.scores.EXPECT().SaveScore(gomock.Any(), s.userID, 20.0).Return(nil).MinTimes(1)
	// No completion Notify expectation: a terminal notification on cancel
	// fails the test.

	e := s.start(60, time.Minute)

	s.Require().NoError(e.SubmitMethod(id.MethodCommunity, 20, nil))
	s.awaitScore(e, 20)
	s.Require().NoError(e.Cancel())

	result := s.awaitDone(e)
	s.Equal(models.StatusCancelled, result.Status)
	s.Equal(20.0, result.FinalScore)
}

func (s *EngineSuite) TestFinalTrustCheckRunsOnTermination() {
	trusted := id.NewUserID()
	s.trust.EXPECT().Connections(gomock.Any(), s.userID).Return([]models.TrustConnection{
		{TrustedUserID: trusted, Strength: 1.0, Since: time.Now()},
	}, nil).AnyTimes()
	s.scores.EXPECT().ScoresFor(gomock.Any(), []id.UserID{trusted}).
		Return(map[id.UserID]float64{trusted: 80}, nil).AnyTimes()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil)

	e := s.start(60, 50*time.Millisecond)

	// 1.0 × (80/100) × 15 = 12 trust bonus folded in by the terminal path.
	result := s.awaitDone(e)
	s.Equal(models.StatusTimedOut, result.Status)
	s.Equal(12.0, result.FinalScore)
	s.Len(result.MethodsCompleted, 1)
	s.Equal(id.MethodTrustNetwork, result.MethodsCompleted[0].Method)
}

func (s *EngineSuite) TestRecomputeTrustRecordsBonus() {
	trusted := id.NewUserID()
	s.trust.EXPECT().Connections(gomock.Any(), s.userID).Return([]models.TrustConnection{
		{TrustedUserID: trusted, Strength: 0.5, Since: time.Now()},
	}, nil).AnyTimes()
	s.scores.EXPECT().ScoresFor(gomock.Any(), []id.UserID{trusted}).
		Return(map[id.UserID]float64{trusted: 100}, nil).AnyTimes()
	s.expectScoreWrites()

	e := s.start(90, time.Minute)

	s.Require().NoError(e.RecomputeTrust())
	// 0.5 × (100/100) × 15 = 7.5.
	s.awaitScore(e, 7.5)
	s.Len(e.MethodsCompleted(), 1)
}

func (s *EngineSuite) TestSignalBeatsTimeoutTie() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "method_completed", gomock.Any()).Return(nil).AnyTimes()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil).AnyTimes()

	e, err := Start(context.Background(), StartInput{
		SessionID:   s.sessionID,
		UserID:      s.userID,
		TargetScore: 30,
		Deadline:    time.Now().Add(20 * time.Millisecond),
	}, s.log, s.scores, s.trust, WithLogger(s.logger), WithNotifier(s.notifier))
	s.Require().NoError(err)

	// Queue the winning signal before the loop starts, then let the already
	// expired deadline race it. The drained signal must win.
	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 40, nil))
	time.Sleep(30 * time.Millisecond)

	go func() { _ = e.Run(context.Background()) }()

	result := s.awaitDone(e)
	s.Equal(models.StatusCompleted, result.Status)
}

func (s *EngineSuite) TestResumeRebuildsStateFromLog() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()

	e := s.start(90, time.Minute)
	s.Require().NoError(e.SubmitMethod(id.MethodCommunity, 20, nil))
	s.awaitScore(e, 20)
	s.Require().NoError(e.SubmitMethod(id.MethodActivity, 15, nil))
	s.awaitScore(e, 35)

	resumed, err := Resume(context.Background(), s.sessionID, s.log, s.scores, s.trust, WithLogger(s.logger))
	s.Require().NoError(err)

	s.Equal(35.0, resumed.CurrentScore())
	s.Equal(models.StatusRunning, resumed.Status())
	s.Len(resumed.MethodsCompleted(), 2)
	s.Equal(90.0, resumed.View().TargetScore)
}

func (s *EngineSuite) TestResumeTerminalSessionIsQueryable() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil)

	e := s.start(20, time.Minute)
	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 25, nil))
	s.awaitDone(e)

	resumed, err := Resume(context.Background(), s.sessionID, s.log, s.scores, s.trust, WithLogger(s.logger))
	s.Require().NoError(err)

	s.Equal(models.StatusCompleted, resumed.Status())
	result, ok := resumed.Result()
	s.True(ok)
	s.Equal(25.0, result.FinalScore)

	// Run returns immediately and signals are rejected.
	s.NoError(resumed.Run(context.Background()))
	err = resumed.SubmitMethod(id.MethodActivity, 10, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestResumeUnknownSession() {
	_, err := Resume(context.Background(), id.NewSessionID(), s.log, s.scores, s.trust, WithLogger(s.logger))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestStartValidation() {
	deps := func(in StartInput) error {
		_, err := Start(context.Background(), in, s.log, s.scores, s.trust, WithLogger(s.logger))
		return err
	}

	s.Run("negative target rejected", func() {
		err := deps(StartInput{SessionID: id.NewSessionID(), UserID: s.userID, TargetScore: -1, Deadline: time.Now().Add(time.Hour)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
	s.Run("target above 100 clamped", func() {
		e, err := Start(context.Background(), StartInput{
			SessionID: id.NewSessionID(), UserID: s.userID, TargetScore: 150, Deadline: time.Now().Add(time.Hour),
		}, s.log, s.scores, s.trust, WithLogger(s.logger))
		s.Require().NoError(err)
		s.Equal(100.0, e.View().TargetScore)
	})
	s.Run("missing deadline rejected", func() {
		err := deps(StartInput{SessionID: id.NewSessionID(), UserID: s.userID, TargetScore: 50})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EngineSuite) TestSubmitMethodValidation() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	e := s.start(60, time.Minute)

	err := e.SubmitMethod("carrier_pigeon", 10, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = e.SubmitMethod(id.MethodDocument, 101, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = e.SubmitMethod(id.MethodDocument, -5, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *EngineSuite) TestZeroTargetReportsFullProgress() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil).AnyTimes()

	e := s.start(0, time.Minute)
	s.InDelta(100.0, e.ProgressPercentage(), 0.001)
}

func (s *EngineSuite) TestIndexTracksSessionLifecycle() {
	s.expectNoTrustBonus()
	s.expectScoreWrites()
	s.notifier.EXPECT().Notify(gomock.Any(), s.userID, "verification_completed", gomock.Any()).Return(nil)

	e := s.start(20, time.Minute)
	s.Require().NoError(e.SubmitMethod(id.MethodDocument, 25, nil))
	s.awaitDone(e)

	entries, err := s.idx.List(context.Background(), index.Filter{UserID: s.userID})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(models.StatusCompleted, entries[0].Status)
	s.Equal(1, entries[0].MethodCount)
}
