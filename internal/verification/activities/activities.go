// Package activities declares the side-effecting collaborators the
// verification engine and its method coordinators call out to. The core owns
// none of these: scores and reputation live in the profile service, documents
// in an extraction backend, validators and verifiers in their directories.
// Implementations are injected at wiring time; tests use generated mocks.
package activities

import (
	"context"
	"time"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

//go:generate mockgen -source=activities.go -destination=mocks/mocks.go -package=mocks ScoreStore,TrustGraph,EvidenceStore,ValidatorDirectory,VerifierDirectory,DocumentExtractor,Notifier

// ScoreStore reads and writes per-user verification scores and the decaying
// reputation value derived from them.
type ScoreStore interface {
	// CurrentScore returns the user's persisted composite verification score.
	// Missing users report sentinel.ErrNotFound.
	CurrentScore(ctx context.Context, userID id.UserID) (float64, error)

	// SaveScore persists the final composite score for a completed session.
	SaveScore(ctx context.Context, userID id.UserID, score float64) error

	// ScoresFor batch-reads composite scores for the given users. Users with
	// no persisted score are absent from the result, not an error.
	ScoresFor(ctx context.Context, users []id.UserID) (map[id.UserID]float64, error)

	// Reputation returns the user's current decayed reputation.
	// Missing users report sentinel.ErrNotFound.
	Reputation(ctx context.Context, userID id.UserID) (float64, error)

	// SaveReputation persists the reputation value after a decay step.
	SaveReputation(ctx context.Context, userID id.UserID, value float64) error
}

// TrustGraph exposes the vouching edges a user has received. Connections are
// read-only inputs to trust strength evaluation.
type TrustGraph interface {
	Connections(ctx context.Context, userID id.UserID) ([]models.TrustConnection, error)
}

// EvidenceStore archives the raw evidence behind a completed method so the
// session record stays small.
type EvidenceStore interface {
	StoreEvidence(ctx context.Context, sessionID id.SessionID, method id.MethodType, evidence map[string]any) error
}

// ValidatorDirectory selects community members to ask for validation.
type ValidatorDirectory interface {
	// SelectValidators picks up to count validators for the user, excluding
	// the user themselves. Fewer than count is not an error; zero is.
	SelectValidators(ctx context.Context, userID id.UserID, count int) ([]id.ValidatorID, error)
}

// VerifierDirectory finds in-person verifiers and books appointments.
type VerifierDirectory interface {
	// FindVerifiers returns verifiers serving the location, best-rated first.
	// An empty result means no verifier is available there.
	FindVerifiers(ctx context.Context, location string) ([]models.Verifier, error)

	// ScheduleAppointment books the slot with the verifier. The returned
	// appointment starts in AppointmentScheduled.
	ScheduleAppointment(ctx context.Context, userID id.UserID, verifierID id.VerifierID, slot time.Time) (models.Appointment, error)
}

// DocumentExtractor pulls identity fields out of a submitted document one
// page at a time. Page-wise access lets the document coordinator checkpoint
// after each page and resume a crashed extraction at the first unprocessed
// page instead of page zero.
type DocumentExtractor interface {
	// PageCount reports how many pages the referenced document has.
	PageCount(ctx context.Context, documentRef string) (int, error)

	// ExtractPage extracts identity fields from one zero-based page. Keys
	// use the canonical field names (full_name, date_of_birth,
	// expiration_date, the per-document number field); pages carrying none
	// return an empty map.
	ExtractPage(ctx context.Context, documentRef string, page int) (map[string]string, error)
}

// Notifier delivers user-facing notifications about session outcomes and
// validation requests. Delivery is best-effort from the engine's point of
// view; a failed notification never fails a session.
type Notifier interface {
	Notify(ctx context.Context, userID id.UserID, kind string, payload map[string]any) error
}
