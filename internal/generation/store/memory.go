// Package store keeps the audit copies of submitted forms.
package store

import (
	"context"
	"sync"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
)

type InMemoryFormLog struct {
	mu      sync.RWMutex
	records map[id.ProfileID][]*models.FormRecord
}

func NewInMemoryFormLog() *InMemoryFormLog {
	return &InMemoryFormLog{records: make(map[id.ProfileID][]*models.FormRecord)}
}

func (s *InMemoryFormLog) Append(_ context.Context, record *models.FormRecord) error {
	cp := *record
	cp.Form = append([]byte(nil), record.Form...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ProfileID] = append(s.records[record.ProfileID], &cp)
	return nil
}

// ListByProfile returns the records of one profile, oldest first.
func (s *InMemoryFormLog) ListByProfile(_ context.Context, profileID id.ProfileID) ([]*models.FormRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FormRecord, len(s.records[profileID]))
	for i, r := range s.records[profileID] {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}
