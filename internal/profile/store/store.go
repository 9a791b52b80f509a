// Package store holds the profile repositories. Every backend stores the full
// profile document, keeps the creation time across updates, and applies
// updates as last write wins. Misses return sentinel.ErrNotFound.
package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/requestcontext"
)

// forCreate returns the copy to store, with an ID assigned when missing.
func forCreate(ctx context.Context, p *models.Profile) *models.Profile {
	out := p.Clone()
	if out.ID.IsNil() {
		out.ID = id.NewProfileID()
	}
	now := requestcontext.Now(ctx)
	out.CreatedAt = now
	out.UpdatedAt = now
	return out
}

// forUpdate returns the copy to store over an existing record.
func forUpdate(ctx context.Context, profileID id.ProfileID, p *models.Profile, createdAt time.Time) *models.Profile {
	out := p.Clone()
	out.ID = profileID
	out.CreatedAt = createdAt
	out.UpdatedAt = requestcontext.Now(ctx)
	return out
}

func encode(p *models.Profile) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (*models.Profile, error) {
	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", sentinel.ErrInvalidState, err)
	}
	return &p, nil
}

// sortSummaries orders listings by name, then by ID.
func sortSummaries(out []models.ProfileSummary) {
	slices.SortFunc(out, func(a, b models.ProfileSummary) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
}
