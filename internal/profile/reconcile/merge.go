package reconcile

import (
	"lexdraft/internal/profile/models"
)

// MergeProfile applies a whole-profile edit onto the stored profile.
//
// Required sections are always present in a full edit and are taken from
// incoming. Optional sections and lists that incoming leaves nil are kept
// from existing. Identity and creation time always come from existing.
func MergeProfile(existing, incoming *models.Profile) *models.Profile {
	if existing == nil {
		return incoming.Clone()
	}
	if incoming == nil {
		return existing.Clone()
	}
	out := incoming.Clone()
	prev := existing.Clone()

	out.ID = prev.ID
	out.CreatedAt = prev.CreatedAt

	if out.Name == "" {
		out.Name = prev.Name
	}
	if out.DataCategories == nil {
		out.DataCategories = prev.DataCategories
	}
	if out.Vendors == nil {
		out.Vendors = prev.Vendors
	}
	keep(&out.Tracking, prev.Tracking)
	keep(&out.LegalBases, prev.LegalBases)
	keep(&out.USStatePrivacy, prev.USStatePrivacy)
	keep(&out.InternationalTransfers, prev.InternationalTransfers)
	keep(&out.Security, prev.Security)
	keep(&out.UserRights, prev.UserRights)
	keep(&out.Billing, prev.Billing)
	keep(&out.ExportControls, prev.ExportControls)
	return out
}

func keep[T any](dst **T, prev *T) {
	if *dst == nil {
		*dst = prev
	}
}
