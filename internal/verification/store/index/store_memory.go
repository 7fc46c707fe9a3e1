package index

import (
	"context"
	"sort"
	"sync"

	id "vouch/pkg/domain"
)

// InMemoryStore keeps the session index in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.SessionID]Entry
}

// NewInMemoryStore creates an empty in-memory index.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.SessionID]Entry)}
}

// Upsert replaces the entry for the session.
func (s *InMemoryStore) Upsert(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SessionID] = entry
	return nil
}

// List returns entries matching the filter, newest first.
func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, entry := range s.entries {
		if !filter.UserID.IsNil() && entry.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
