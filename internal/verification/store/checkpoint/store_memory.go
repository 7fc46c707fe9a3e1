package checkpoint

import (
	"context"
	"sync"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemoryStore keeps checkpoints in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	decay    map[id.UserID]models.DecayCheckpoint
	progress map[id.SessionID]int
}

// NewInMemoryStore creates an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		decay:    make(map[id.UserID]models.DecayCheckpoint),
		progress: make(map[id.SessionID]int),
	}
}

func (s *InMemoryStore) SaveDecay(_ context.Context, cp models.DecayCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decay[cp.UserID] = cp
	return nil
}

func (s *InMemoryStore) LoadDecay(_ context.Context, userID id.UserID) (models.DecayCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.decay[userID]
	if !ok {
		return models.DecayCheckpoint{}, sentinel.ErrNotFound
	}
	return cp, nil
}

func (s *InMemoryStore) DeleteDecay(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decay, userID)
	return nil
}

func (s *InMemoryStore) SaveProgress(_ context.Context, sessionID id.SessionID, lastCompleted int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[sessionID] = lastCompleted
	return nil
}

func (s *InMemoryStore) LoadProgress(_ context.Context, sessionID id.SessionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress[sessionID], nil
}

func (s *InMemoryStore) DeleteProgress(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, sessionID)
	return nil
}
