package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/verification/activities/mocks"
	"vouch/internal/verification/store/checkpoint"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/retry"
	"vouch/pkg/requestcontext"
)

type DocumentCoordinatorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	extractor *mocks.MockDocumentExtractor
	evidence  *mocks.MockEvidenceStore
	progress  *checkpoint.InMemoryStore
	coord     *Coordinator

	input Input
	now   time.Time
}

func TestDocumentCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(DocumentCoordinatorSuite))
}

func (s *DocumentCoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.extractor = mocks.NewMockDocumentExtractor(s.ctrl)
	s.evidence = mocks.NewMockEvidenceStore(s.ctrl)
	s.progress = checkpoint.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fast := retry.Policy{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxAttempts: 3}
	var err error
	s.coord, err = New(s.extractor, s.progress, s.evidence,
		WithLogger(logger),
		WithRetryPolicies(fast, fast),
	)
	s.Require().NoError(err)

	s.input = Input{
		UserID:       id.NewUserID(),
		SessionID:    id.NewSessionID(),
		DocumentType: "passport",
		DocumentRef:  "s3://docs/passport.jpg",
	}
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *DocumentCoordinatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DocumentCoordinatorSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func validPassportFields() map[string]string {
	return map[string]string{
		"full_name":       "Ada Lovelace",
		"date_of_birth":   "1990-12-10",
		"passport_number": "X1234567",
		"country":         "GB",
		"expiration_date": "2030-01-01",
	}
}

func (s *DocumentCoordinatorSuite) TestRun() {
	s.Run("valid document succeeds", func() {
		s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(1, nil)
		s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).Return(validPassportFields(), nil)
		s.evidence.EXPECT().StoreEvidence(gomock.Any(), s.input.SessionID, id.MethodDocument, gomock.Any()).Return(nil)

		res, err := s.coord.Run(s.ctx(), s.input)
		s.NoError(err)
		s.True(res.Success)
		s.Equal(100.0, res.ValidityScore)
		s.Equal(StateSucceeded, s.coord.State())
	})
}

func (s *DocumentCoordinatorSuite) TestRun_MergesFieldsAcrossPages() {
	fields := validPassportFields()
	s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(2, nil)
	s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).Return(map[string]string{
		"full_name":     fields["full_name"],
		"date_of_birth": fields["date_of_birth"],
	}, nil)
	s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 1).Return(map[string]string{
		"passport_number": fields["passport_number"],
		"country":         fields["country"],
		"expiration_date": fields["expiration_date"],
	}, nil)
	s.evidence.EXPECT().StoreEvidence(gomock.Any(), s.input.SessionID, id.MethodDocument, gomock.Any()).Return(nil)

	res, err := s.coord.Run(s.ctx(), s.input)
	s.NoError(err)
	s.True(res.Success)
	s.Len(res.ExtractedData, 5)
}

func (s *DocumentCoordinatorSuite) TestRun_ResumesFromCheckpoint() {
	// Page 0 already completed on a previous attempt.
	s.Require().NoError(s.progress.SaveProgress(context.Background(), s.input.SessionID, 1))

	s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(2, nil)
	// Only page 1 is extracted; page 0 must not be re-processed.
	s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 1).Return(validPassportFields(), nil)
	s.evidence.EXPECT().StoreEvidence(gomock.Any(), s.input.SessionID, id.MethodDocument, gomock.Any()).Return(nil)

	res, err := s.coord.Run(s.ctx(), s.input)
	s.NoError(err)
	s.True(res.Success)

	// Progress marker is cleared on completion.
	resumed, err := s.progress.LoadProgress(context.Background(), s.input.SessionID)
	s.NoError(err)
	s.Equal(0, resumed)
}

func (s *DocumentCoordinatorSuite) TestRun_RetriesTransientExtractionFailure() {
	s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(1, nil)
	gomock.InOrder(
		s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).Return(nil, errors.New("ocr backend unavailable")),
		s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).Return(validPassportFields(), nil),
	)
	s.evidence.EXPECT().StoreEvidence(gomock.Any(), s.input.SessionID, id.MethodDocument, gomock.Any()).Return(nil)

	res, err := s.coord.Run(s.ctx(), s.input)
	s.NoError(err)
	s.True(res.Success)
}

func (s *DocumentCoordinatorSuite) TestRun_ExhaustedRetriesFailTheMethod() {
	s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(1, nil)
	s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).
		Return(nil, errors.New("ocr backend unavailable")).Times(3)

	res, err := s.coord.Run(s.ctx(), s.input)
	s.NoError(err)
	s.False(res.Success)
	s.Contains(res.ErrorDetail, "extraction failed")
	s.Equal(StateFailed, s.coord.State())
}

func (s *DocumentCoordinatorSuite) TestRun_UnsupportedDocumentType() {
	s.input.DocumentType = "library_card"

	res, err := s.coord.Run(s.ctx(), s.input)
	s.NoError(err)
	s.False(res.Success)
	s.Contains(res.ErrorDetail, "unsupported document type")
	s.Equal(StateFailed, s.coord.State())
}

func (s *DocumentCoordinatorSuite) TestRun_CancellationStopsBetweenPages() {
	ctx, cancel := context.WithCancel(s.ctx())

	s.extractor.EXPECT().PageCount(gomock.Any(), s.input.DocumentRef).Return(3, nil)
	s.extractor.EXPECT().ExtractPage(gomock.Any(), s.input.DocumentRef, 0).
		DoAndReturn(func(context.Context, string, int) (map[string]string, error) {
			cancel()
			return map[string]string{"full_name": "Ada Lovelace"}, nil
		})

	_, err := s.coord.Run(ctx, s.input)
	s.ErrorIs(err, context.Canceled)

	// The completed page stays checkpointed for the next attempt.
	resumed, loadErr := s.progress.LoadProgress(context.Background(), s.input.SessionID)
	s.NoError(loadErr)
	s.Equal(1, resumed)
}

func (s *DocumentCoordinatorSuite) TestValidate() {
	s.Run("all checks pass", func() {
		score, checks := Validate("passport", validPassportFields(), s.now)
		s.Equal(100.0, score)
		s.True(checks["required_fields"])
		s.True(checks["expiration"])
	})

	s.Run("missing fields cost 30", func() {
		fields := validPassportFields()
		delete(fields, "passport_number")
		score, checks := Validate("passport", fields, s.now)
		s.Equal(70.0, score)
		s.False(checks["required_fields"])
	})

	s.Run("expired document costs 50", func() {
		fields := validPassportFields()
		fields["expiration_date"] = "2020-01-01"
		score, checks := Validate("passport", fields, s.now)
		s.Equal(50.0, score)
		s.False(checks["expiration"])
	})

	s.Run("unparseable expiration costs 20", func() {
		fields := validPassportFields()
		fields["expiration_date"] = "not-a-date"
		score, _ := Validate("passport", fields, s.now)
		s.Equal(80.0, score)
	})

	s.Run("penalties stack and floor at zero", func() {
		// Missing fields (-30) + expired (-50) + more would floor at 0;
		// here the worst combination reaches 20.
		fields := map[string]string{"expiration_date": "2020-01-01"}
		score, _ := Validate("passport", fields, s.now)
		s.Equal(20.0, score)
	})
}

func (s *DocumentCoordinatorSuite) TestNew() {
	s.Run("nil extractor returns error", func() {
		_, err := New(nil, s.progress, s.evidence)
		s.Error(err)
	})
	s.Run("nil progress store returns error", func() {
		_, err := New(s.extractor, nil, s.evidence)
		s.Error(err)
	})
	s.Run("nil evidence store returns error", func() {
		_, err := New(s.extractor, s.progress, nil)
		s.Error(err)
	})
}
