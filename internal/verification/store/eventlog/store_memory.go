package eventlog

import (
	"context"
	"sort"
	"sync"

	"vouch/internal/verification/events"
	id "vouch/pkg/domain"
)

// InMemoryStore keeps event logs in process memory. Used by unit tests and by
// the daemon when Postgres is not configured.
type InMemoryStore struct {
	mu   sync.RWMutex
	logs map[id.SessionID]map[int64]events.Envelope
}

// NewInMemoryStore creates an empty in-memory event log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{logs: make(map[id.SessionID]map[int64]events.Envelope)}
}

// Append stores the envelope unless its (session, seq) slot is taken.
func (s *InMemoryStore) Append(_ context.Context, env events.Envelope) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[env.SessionID]
	if !ok {
		log = make(map[int64]events.Envelope)
		s.logs[env.SessionID] = log
	}
	if _, exists := log[env.Seq]; exists {
		return false, nil
	}
	log[env.Seq] = env
	return true, nil
}

// ListBySession returns the session's envelopes ordered by sequence.
func (s *InMemoryStore) ListBySession(_ context.Context, sessionID id.SessionID) ([]events.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]events.Envelope, 0, len(log))
	for _, env := range log {
		out = append(out, env)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// OpenSessions returns sessions with a started event and no finished event.
func (s *InMemoryStore) OpenSessions(_ context.Context) ([]id.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []id.SessionID
	for sessionID, log := range s.logs {
		started, finished := false, false
		for _, env := range log {
			switch env.Kind {
			case events.KindSessionStarted:
				started = true
			case events.KindSessionFinished:
				finished = true
			}
		}
		if started && !finished {
			open = append(open, sessionID)
		}
	}
	return open, nil
}
