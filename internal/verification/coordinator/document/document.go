// Package document runs the document verification sub-process: extract
// identity fields page by page, validate them, archive the evidence. It is an
// isolated child of the session engine with its own retry policy; a failure
// here means "method not earned", never a failed session.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vouch/internal/verification/activities"
	"vouch/internal/verification/store/checkpoint"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/retry"
	"vouch/pkg/requestcontext"
)

// State is the coordinator's observable phase.
type State string

const (
	StateExtracting State = "extracting"
	StateValidating State = "validating"
	StateStoring    State = "storing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// MinValidityScore is the threshold below which a document is rejected.
const MinValidityScore = 60.0

// Validity check penalties.
const (
	missingFieldsPenalty = 30.0
	expiredPenalty       = 50.0
	badDateFormatPenalty = 20.0
)

// requiredFields maps document type to the field names extraction must yield.
var requiredFields = map[string][]string{
	"passport":        {"full_name", "date_of_birth", "passport_number", "country"},
	"drivers_license": {"full_name", "date_of_birth", "license_number", "state"},
	"national_id":     {"full_name", "date_of_birth", "id_number", "country"},
}

// Input describes one document to verify.
type Input struct {
	UserID       id.UserID
	SessionID    id.SessionID
	DocumentType string
	DocumentRef  string
}

// Result is the coordinator's terminal report. Success=false with an
// ErrorDetail is a domain outcome, not an infrastructure error.
type Result struct {
	Success       bool
	ExtractedData map[string]string
	ValidityScore float64
	Checks        map[string]bool
	Evidence      map[string]any
	ErrorDetail   string
}

// Coordinator drives one document verification to a terminal state.
// Run is called once per instance; state is readable concurrently.
type Coordinator struct {
	extractor activities.DocumentExtractor
	progress  checkpoint.ProgressStore
	evidence  activities.EvidenceStore
	logger    *slog.Logger

	extractPolicy retry.Policy
	readPolicy    retry.Policy
	onRetry       func()

	mu    sync.RWMutex
	state State
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRetryPolicies overrides the extraction and fast-read policies.
func WithRetryPolicies(extract, read retry.Policy) Option {
	return func(c *Coordinator) {
		c.extractPolicy = extract
		c.readPolicy = read
	}
}

// WithRetryObserver installs a callback fired once per retried activity call.
func WithRetryObserver(fn func()) Option {
	return func(c *Coordinator) {
		c.onRetry = fn
	}
}

func New(extractor activities.DocumentExtractor, progress checkpoint.ProgressStore, evidence activities.EvidenceStore, opts ...Option) (*Coordinator, error) {
	if extractor == nil {
		return nil, fmt.Errorf("document extractor is required")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if evidence == nil {
		return nil, fmt.Errorf("evidence store is required")
	}

	c := &Coordinator{
		extractor:     extractor,
		progress:      progress,
		evidence:      evidence,
		logger:        slog.Default(),
		extractPolicy: retry.Extraction(),
		readPolicy:    retry.FastRead(),
		state:         StateExtracting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current observable phase.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes extract, validate, store. The returned error is non-nil only
// for cancellation; every other failure lands in Result.ErrorDetail so the
// parent can record "method not earned" and move on.
func (c *Coordinator) Run(ctx context.Context, in Input) (Result, error) {
	log := c.logger.With("user_id", in.UserID, "session_id", in.SessionID, "document_type", in.DocumentType)
	log.Info("starting document verification")

	if _, ok := requiredFields[in.DocumentType]; !ok {
		c.setState(StateFailed)
		return c.fail(ctx, fmt.Sprintf("unsupported document type %q", in.DocumentType)), nil
	}

	extracted, err := c.extract(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.setState(StateFailed)
		log.Warn("document extraction failed", "error", err)
		return c.fail(ctx, fmt.Sprintf("extraction failed: %v", err)), nil
	}
	log.Info("document extracted", "fields", len(extracted))

	c.setState(StateValidating)
	score, checks := Validate(in.DocumentType, extracted, requestcontext.Now(ctx))
	valid := score >= MinValidityScore
	log.Info("document validity checked", "score", score, "valid", valid)

	c.setState(StateStoring)
	evidence := map[string]any{
		"document_type":    in.DocumentType,
		"document_ref":     in.DocumentRef,
		"extracted_fields": fieldNames(extracted),
		"validity_checks":  checks,
		"validity_score":   score,
		"timestamp":        requestcontext.Now(ctx).UTC().Format(time.RFC3339),
	}
	storeErr := retry.Do(ctx, c.readPolicy, func() error {
		return c.evidence.StoreEvidence(ctx, in.SessionID, id.MethodDocument, evidence)
	}, c.notifyRetry)
	if storeErr != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.setState(StateFailed)
		log.Warn("evidence storage failed", "error", storeErr)
		return c.fail(ctx, fmt.Sprintf("evidence storage failed: %v", storeErr)), nil
	}

	if !valid {
		c.setState(StateFailed)
		return Result{
			ExtractedData: extracted,
			ValidityScore: score,
			Checks:        checks,
			Evidence:      evidence,
			ErrorDetail:   fmt.Sprintf("validity score %.2f below threshold %.0f", score, MinValidityScore),
		}, nil
	}

	c.setState(StateSucceeded)
	return Result{
		Success:       true,
		ExtractedData: extracted,
		ValidityScore: score,
		Checks:        checks,
		Evidence:      evidence,
	}, nil
}

// extract pulls fields page by page, checkpointing after each page so a
// crashed or retried run resumes at the first unprocessed page. Cancellation
// is observed between pages, never mid-call.
func (c *Coordinator) extract(ctx context.Context, in Input) (map[string]string, error) {
	var pages int
	err := retry.Do(ctx, c.readPolicy, func() error {
		var e error
		pages, e = c.extractor.PageCount(ctx, in.DocumentRef)
		return e
	}, c.notifyRetry)
	if err != nil {
		return nil, err
	}

	start, err := c.progress.LoadProgress(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		c.logger.Info("resuming extraction from checkpoint",
			"session_id", in.SessionID, "page", start, "total_pages", pages)
	}

	fields := make(map[string]string)
	for page := start; page < pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var pageFields map[string]string
		err := retry.Do(ctx, c.extractPolicy, func() error {
			var e error
			pageFields, e = c.extractor.ExtractPage(ctx, in.DocumentRef, page)
			return e
		}, c.notifyRetry)
		if err != nil {
			return nil, err
		}
		for k, v := range pageFields {
			fields[k] = v
		}

		if err := c.progress.SaveProgress(ctx, in.SessionID, page+1); err != nil {
			return nil, err
		}
	}

	if err := c.progress.DeleteProgress(ctx, in.SessionID); err != nil {
		c.logger.Warn("failed to clear extraction progress", "session_id", in.SessionID, "error", err)
	}
	return fields, nil
}

func (c *Coordinator) fail(ctx context.Context, detail string) Result {
	return Result{
		ErrorDetail: detail,
		Evidence: map[string]any{
			"error":     detail,
			"timestamp": requestcontext.Now(ctx).UTC().Format(time.RFC3339),
		},
	}
}

func (c *Coordinator) notifyRetry(err error, next time.Duration) {
	if c.onRetry != nil {
		c.onRetry()
	}
}

// Validate scores the extracted fields 0-100. Missing required fields cost
// 30 points, an expired document 50, an unparseable expiration date 20.
func Validate(documentType string, extracted map[string]string, now time.Time) (float64, map[string]bool) {
	checks := make(map[string]bool)
	score := 100.0

	missing := false
	for _, f := range requiredFields[documentType] {
		if _, ok := extracted[f]; !ok {
			missing = true
			break
		}
	}
	checks["required_fields"] = !missing
	if missing {
		score -= missingFieldsPenalty
	}

	if raw, ok := extracted["expiration_date"]; ok {
		expiration, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			expiration, err = time.Parse("2006-01-02", raw)
		}
		switch {
		case err != nil:
			checks["expiration"] = false
			score -= badDateFormatPenalty
		case expiration.Before(now):
			checks["expiration"] = false
			score -= expiredPenalty
		default:
			checks["expiration"] = true
		}
	}

	if score < 0 {
		score = 0
	}
	return score, checks
}

func fieldNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	return names
}
