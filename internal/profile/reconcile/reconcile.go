// Package reconcile merges document forms back into the canonical profile.
//
// Every profile section has its own reducer. A reducer only touches fields
// the form actually carries: nil pointers and nil slices mean "not on this
// form" and leave the profile alone, so a partial view can never erase data
// it does not model.
package reconcile

import (
	"strings"

	"lexdraft/internal/profile/models"
	dErrors "lexdraft/pkg/domain-errors"
)

// sectionReducer applies one section of form F onto a profile in place.
type sectionReducer[F any] struct {
	section string
	apply   func(p *models.Profile, f *F) error
}

func runReducers[F any](p *models.Profile, f *F, reducers []sectionReducer[F]) []error {
	var errs []error
	for _, r := range reducers {
		if err := r.apply(p, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Reconcile returns a copy of profile with form merged in. The input profile
// is never modified. A *models.UnifiedForm is projected onto docType first.
func Reconcile(profile *models.Profile, form models.DocumentForm, docType models.DocType) (*models.Profile, error) {
	if profile == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile is required")
	}
	out := profile.Clone()
	if errs := apply(out, form, docType); len(errs) > 0 {
		return nil, wrap(errs)
	}
	return out, nil
}

// ReconcileAll merges the unified form once per document type in canonical
// order, each step building on the previous one. Errors from every document
// are reported together.
func ReconcileAll(profile *models.Profile, form *models.UnifiedForm, docs []models.DocType) (*models.Profile, error) {
	if profile == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile is required")
	}
	out := profile.Clone()
	var errs []error
	for _, doc := range models.NormalizeDocTypes(docs) {
		errs = append(errs, apply(out, form, doc)...)
	}
	if len(errs) > 0 {
		return nil, wrap(errs)
	}
	return out, nil
}

func apply(p *models.Profile, form models.DocumentForm, docType models.DocType) []error {
	var described []string
	if u, ok := form.(*models.UnifiedForm); ok {
		if u == nil {
			return nil
		}
		described = inventoryNames(u.DataInventory)
		form = u.For(docType)
	}
	switch f := form.(type) {
	case nil:
		return nil
	case *models.ToSForm:
		if f == nil {
			return nil
		}
		if docType != models.DocTypeToS {
			return []error{fieldError("form", "", "terms of service form submitted for %s", docType)}
		}
		return runReducers(p, f, tosReducers(described))
	case *models.PrivacyForm:
		if f == nil {
			return nil
		}
		if docType != models.DocTypePrivacy {
			return []error{fieldError("form", "", "privacy form submitted for %s", docType)}
		}
		return runReducers(p, f, privacyReducers)
	default:
		return []error{fieldError("form", "", "unsupported form for %s", docType)}
	}
}

func inventoryNames(items []models.DataInventoryItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Category); name != "" {
			names = append(names, name)
		}
	}
	return names
}
