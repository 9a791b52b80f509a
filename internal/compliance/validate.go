package compliance

import (
	"fmt"
	"strings"

	"lexdraft/internal/profile/models"
	"lexdraft/internal/profile/reconcile"
)

const (
	ruleReconciliation = "reconciliation"
	ruleInvariant      = "profile-invariant"
)

// Validator checks a profile and form against the requirement set for the
// selected documents. It holds no state; the same input always yields the
// same gaps in the same order.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate reconciles form into a copy of profile and reports every missing
// or malformed field. Output order: reconciliation failures, base fields by
// document then registry order, active rules in declaration order, then any
// remaining structural violations. Only error-severity gaps block generation.
//
// Jurisdictions are read from the reconciled copy, so a jurisdiction added by
// this very form activates its rules.
func (v *Validator) Validate(profile *models.Profile, form *models.UnifiedForm, docs []models.DocType) []models.Gap {
	gaps := []models.Gap{}
	if profile == nil {
		return append(gaps, models.Gap{
			Severity: models.SeverityError,
			Message:  "Profile is required",
			Rule:     ruleInvariant,
		})
	}
	docs = models.NormalizeDocTypes(docs)

	merged, err := reconcile.ReconcileAll(profile, form, docs)
	if err != nil {
		for _, re := range reconcile.Errors(err) {
			gaps = append(gaps, models.Gap{
				Severity: models.SeverityError,
				Message:  fmt.Sprintf("Cannot apply %s: %s", re.Path(), re.Reason),
				Field:    re.Path(),
				Rule:     ruleReconciliation,
			})
		}
		if len(gaps) == 0 {
			gaps = append(gaps, models.Gap{Severity: models.SeverityError, Message: err.Error(), Rule: ruleReconciliation})
		}
		return gaps
	}

	view := View{Profile: merged, Form: form}
	ctx := RuleContext{
		Jurisdictions: merged.Organization.JurisdictionsServed,
		DocTypes:      docs,
		View:          view,
	}

	reported := make(map[string]bool)
	for _, req := range Requirements(ctx).Required {
		if !req.IsEmpty(view) {
			continue
		}
		reported[req.Path] = true
		gaps = append(gaps, models.Gap{
			Severity: req.Severity,
			Message:  missingMessage(req),
			Field:    req.Path,
			Rule:     req.Source,
		})
	}

	for _, r := range ActiveRules(ctx) {
		if r.check == nil {
			continue
		}
		if msg, violated := r.check(view); violated {
			gaps = append(gaps, models.Gap{Severity: r.Severity, Message: msg, Rule: r.ID})
		}
	}

	for _, vio := range merged.Violations() {
		if reported[basePath(vio.Field)] {
			continue
		}
		gaps = append(gaps, models.Gap{
			Severity: models.SeverityError,
			Message:  vio.Message(),
			Field:    vio.Field,
			Rule:     ruleInvariant,
		})
	}
	return gaps
}

func missingMessage(req RequiredField) string {
	msg := fmt.Sprintf("%s (%s) is required", req.Label, req.Path)
	if req.Reason != "" {
		msg += " " + req.Reason
	}
	return msg
}

// basePath strips list indexes: "a.b[2].c" becomes "a.b".
func basePath(field string) string {
	if i := strings.IndexByte(field, '['); i >= 0 {
		return field[:i]
	}
	return field
}
