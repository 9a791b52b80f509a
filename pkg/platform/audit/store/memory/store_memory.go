package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ProfileID][]audit.Event
	order  []audit.Event
	seen   map[uuid.UUID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[id.ProfileID][]audit.Event),
		seen:   make(map[uuid.UUID]bool),
	}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ProfileID] = append(s.events[event.ProfileID], event)
	s.order = append(s.order, event)
	return nil
}

// AppendWithID appends unless eventID was seen before.
func (s *InMemoryStore) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	s.mu.Lock()
	if s.seen[eventID] {
		s.mu.Unlock()
		return nil
	}
	s.seen[eventID] = true
	s.mu.Unlock()
	return s.Append(ctx, event)
}

func (s *InMemoryStore) ListByProfile(_ context.Context, profileID id.ProfileID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[profileID]...), nil
}

// ListRecent returns up to limit events, most recent last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.order)-limit, 0)
	return append([]audit.Event{}, s.order[start:]...), nil
}
