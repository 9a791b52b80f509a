package store

import (
	"context"
	"sync"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in a map. Stored values are copies, so callers
// never share state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.ProfileID]*models.Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.ProfileID]*models.Profile)}
}

func (s *InMemoryStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	out := forCreate(ctx, p)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[out.ID]; ok {
		return nil, sentinel.ErrConflict
	}
	s.profiles[out.ID] = out
	return out.Clone(), nil
}

func (s *InMemoryStore) Get(_ context.Context, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[profileID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := forUpdate(ctx, profileID, p, existing.CreatedAt)
	s.profiles[profileID] = out
	return out.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, profileID id.ProfileID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profileID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, profileID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.ProfileSummary, error) {
	s.mu.RLock()
	out := make([]models.ProfileSummary, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Summary())
	}
	s.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}
