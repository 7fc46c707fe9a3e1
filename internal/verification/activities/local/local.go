// Package local provides in-memory implementations of the activity
// collaborators. The daemon falls back to them when no external profile
// service, directory, or extraction backend is configured; tests use them
// for full-stack flows without containers.
package local

import (
	"context"
	"sort"
	"sync"
	"time"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// Scores keeps verification scores and reputation values in memory.
type Scores struct {
	mu          sync.RWMutex
	scores      map[id.UserID]float64
	reputations map[id.UserID]float64
}

func NewScores() *Scores {
	return &Scores{
		scores:      make(map[id.UserID]float64),
		reputations: make(map[id.UserID]float64),
	}
}

func (s *Scores) CurrentScore(ctx context.Context, userID id.UserID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scores[userID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return v, nil
}

func (s *Scores) SaveScore(ctx context.Context, userID id.UserID, score float64) error {
	s.mu.Lock()
	s.scores[userID] = score
	s.mu.Unlock()
	return nil
}

func (s *Scores) ScoresFor(ctx context.Context, users []id.UserID) (map[id.UserID]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]float64, len(users))
	for _, u := range users {
		if v, ok := s.scores[u]; ok {
			out[u] = v
		}
	}
	return out, nil
}

func (s *Scores) Reputation(ctx context.Context, userID id.UserID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.reputations[userID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return v, nil
}

func (s *Scores) SaveReputation(ctx context.Context, userID id.UserID, value float64) error {
	s.mu.Lock()
	s.reputations[userID] = value
	s.mu.Unlock()
	return nil
}

// TrustGraph keeps vouching edges in memory.
type TrustGraph struct {
	mu    sync.RWMutex
	edges map[id.UserID][]models.TrustConnection
}

func NewTrustGraph() *TrustGraph {
	return &TrustGraph{edges: make(map[id.UserID][]models.TrustConnection)}
}

// SetConnections replaces a user's incoming vouching edges.
func (g *TrustGraph) SetConnections(userID id.UserID, connections []models.TrustConnection) {
	g.mu.Lock()
	g.edges[userID] = connections
	g.mu.Unlock()
}

func (g *TrustGraph) Connections(ctx context.Context, userID id.UserID) ([]models.TrustConnection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.edges[userID]
	out := make([]models.TrustConnection, len(edges))
	copy(out, edges)
	return out, nil
}

// Evidence archives method evidence in memory.
type Evidence struct {
	mu      sync.RWMutex
	records map[id.SessionID]map[id.MethodType]map[string]any
}

func NewEvidence() *Evidence {
	return &Evidence{records: make(map[id.SessionID]map[id.MethodType]map[string]any)}
}

func (e *Evidence) StoreEvidence(ctx context.Context, sessionID id.SessionID, method id.MethodType, evidence map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.records[sessionID] == nil {
		e.records[sessionID] = make(map[id.MethodType]map[string]any)
	}
	e.records[sessionID][method] = evidence
	return nil
}

// Get returns stored evidence for inspection.
func (e *Evidence) Get(sessionID id.SessionID, method id.MethodType) (map[string]any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	evidence, ok := e.records[sessionID][method]
	return evidence, ok
}

// Validators selects from a fixed pool, always excluding the subject.
type Validators struct {
	mu   sync.RWMutex
	pool []id.ValidatorID
}

func NewValidators(pool []id.ValidatorID) *Validators {
	return &Validators{pool: pool}
}

func (v *Validators) SelectValidators(ctx context.Context, userID id.UserID, count int) ([]id.ValidatorID, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]id.ValidatorID, 0, count)
	for _, candidate := range v.pool {
		if candidate.String() == userID.String() {
			continue
		}
		out = append(out, candidate)
		if len(out) == count {
			break
		}
	}
	return out, nil
}

// Verifiers holds a fixed roster of in-person verifiers per location.
type Verifiers struct {
	mu     sync.RWMutex
	roster map[string][]models.Verifier
}

func NewVerifiers() *Verifiers {
	return &Verifiers{roster: make(map[string][]models.Verifier)}
}

// AddVerifier registers a verifier for a location.
func (v *Verifiers) AddVerifier(location string, verifier models.Verifier) {
	v.mu.Lock()
	v.roster[location] = append(v.roster[location], verifier)
	v.mu.Unlock()
}

func (v *Verifiers) FindVerifiers(ctx context.Context, location string) ([]models.Verifier, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	found := v.roster[location]
	out := make([]models.Verifier, len(found))
	copy(out, found)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (v *Verifiers) ScheduleAppointment(ctx context.Context, userID id.UserID, verifierID id.VerifierID, slot time.Time) (models.Appointment, error) {
	return models.Appointment{
		VerifierID:    verifierID,
		ScheduledTime: slot,
		Status:        models.AppointmentScheduled,
	}, nil
}

// Extractor serves pre-seeded document fixtures page by page.
type Extractor struct {
	mu        sync.RWMutex
	documents map[string][]map[string]string
}

func NewExtractor() *Extractor {
	return &Extractor{documents: make(map[string][]map[string]string)}
}

// SeedDocument registers a document's pages under a reference.
func (x *Extractor) SeedDocument(ref string, pages []map[string]string) {
	x.mu.Lock()
	x.documents[ref] = pages
	x.mu.Unlock()
}

func (x *Extractor) PageCount(ctx context.Context, documentRef string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	pages, ok := x.documents[documentRef]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return len(pages), nil
}

func (x *Extractor) ExtractPage(ctx context.Context, documentRef string, page int) (map[string]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	pages, ok := x.documents[documentRef]
	if !ok || page < 0 || page >= len(pages) {
		return nil, sentinel.ErrNotFound
	}
	out := make(map[string]string, len(pages[page]))
	for k, v := range pages[page] {
		out[k] = v
	}
	return out, nil
}

// Set bundles one of each collaborator for a daemon running without
// external backends.
type Set struct {
	Scores     *Scores
	Trust      *TrustGraph
	Evidence   *Evidence
	Validators *Validators
	Verifiers  *Verifiers
	Extractor  *Extractor
}

// NewSet builds a fresh collaborator set. The validator pool starts with a
// handful of members so community rounds can run out of the box.
func NewSet() *Set {
	pool := make([]id.ValidatorID, 0, 5)
	for i := 0; i < 5; i++ {
		pool = append(pool, id.NewValidatorID())
	}
	return &Set{
		Scores:     NewScores(),
		Trust:      NewTrustGraph(),
		Evidence:   NewEvidence(),
		Validators: NewValidators(pool),
		Verifiers:  NewVerifiers(),
		Extractor:  NewExtractor(),
	}
}
