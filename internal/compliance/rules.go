package compliance

import (
	"fmt"
	"slices"

	"lexdraft/internal/profile/models"
)

// RuleContext is everything a rule's activation predicate may look at.
type RuleContext struct {
	Jurisdictions []models.Jurisdiction
	DocTypes      []models.DocType
	View          View
}

func (c RuleContext) serves(targets ...models.Jurisdiction) bool {
	return models.ContainsAny(c.Jurisdictions, targets...)
}

// profile returns the view's profile or an empty one, so predicates can read
// flags without nil checks when only jurisdictions are known.
func (c RuleContext) profile() *models.Profile {
	if c.View.Profile == nil {
		return &models.Profile{}
	}
	return c.View.Profile
}

// Rule is a conditional requirement. When active, every Requires path must be
// non-empty, Reveals paths become settable, and Check (if set) may report a
// finding that is not tied to a single empty field.
type Rule struct {
	ID       string
	Reason   string
	Severity models.Severity
	Docs     []models.DocType
	Requires []string
	Reveals  []string

	active func(RuleContext) bool
	check  func(View) (string, bool)
}

func (r Rule) scopedTo(docs []models.DocType) bool {
	if len(r.Docs) == 0 {
		return true
	}
	for _, d := range docs {
		if slices.Contains(r.Docs, d) {
			return true
		}
	}
	return false
}

// rules is the declaration order used for activation and for gap output.
var rules = []Rule{
	{
		ID:       "eu-uk-controller-role",
		Reason:   "when serving the EU or UK",
		Severity: models.SeverityError,
		Requires: []string{"legal_bases.controller_or_processor"},
		active: func(c RuleContext) bool {
			return c.serves(models.JurisdictionEU, models.JurisdictionUK)
		},
	},
	{
		ID:       "eu-uk-lawful-bases",
		Reason:   "when serving the EU or UK",
		Severity: models.SeverityError,
		Requires: []string{"legal_bases.lawful_bases_per_purpose"},
		active: func(c RuleContext) bool {
			return c.serves(models.JurisdictionEU, models.JurisdictionUK)
		},
	},
	{
		ID:       "us-ca-request-channels",
		Reason:   "when serving the US or Canada",
		Severity: models.SeverityError,
		Requires: []string{"us_state_privacy.request_channels"},
		active: func(c RuleContext) bool {
			return c.serves(models.JurisdictionUS, models.JurisdictionCA)
		},
	},
	{
		ID:       "beta-note",
		Reason:   "when beta features are enabled",
		Severity: models.SeverityError,
		Docs:     []models.DocType{models.DocTypeToS},
		Requires: []string{"product.beta_note"},
		active: func(c RuleContext) bool {
			return c.profile().Product.HasBetaFeatures
		},
	},
	{
		ID:       "ugc-license",
		Reason:   "when user-generated content is enabled",
		Severity: models.SeverityError,
		Docs:     []models.DocType{models.DocTypeToS},
		Requires: []string{"acceptable_use.ugc_license_to_service"},
		active: func(c RuleContext) bool {
			return c.profile().AcceptableUse.UGCEnabled
		},
	},
	{
		ID:       "parental-consent-flow",
		Reason:   "when users under 13 are allowed with parental consent",
		Severity: models.SeverityError,
		Requires: []string{"audience.parental_consent_flow_description"},
		active: func(c RuleContext) bool {
			return c.profile().Audience.AllowUnder13WithParentalConsent
		},
	},
	{
		ID:       "arbitration-terms",
		Reason:   "when disputes go to arbitration",
		Severity: models.SeverityInfo,
		Docs:     []models.DocType{models.DocTypeToS},
		Reveals:  []string{"dispute_resolution.has_class_action_waiver", "dispute_resolution.has_small_claims_carveout"},
		active: func(c RuleContext) bool {
			return c.profile().DisputeResolution.DisputePath == models.DisputePathArbitration
		},
	},
	{
		ID:       "eea-uk-minimum-age",
		Reason:   "when serving the EU or UK",
		Severity: models.SeverityWarn,
		Reveals:  []string{"audience.eea_uk_override_16"},
		active: func(c RuleContext) bool {
			return c.serves(models.JurisdictionEU, models.JurisdictionUK)
		},
		check: func(v View) (string, bool) {
			if v.Profile == nil {
				return "", false
			}
			a := v.Profile.Audience
			if a.MinimumAge >= 16 || a.EEAUKOverride16 {
				return "", false
			}
			return fmt.Sprintf("Minimum age is %d but EEA/UK users usually need to be 16 for data consent; "+
				"raise the minimum age or enable the EEA/UK 16+ override (audience.eea_uk_override_16)", a.MinimumAge), true
		},
	},
	{
		ID:       "us-financial-incentives",
		Reason:   "when financial incentives are offered",
		Severity: models.SeverityError,
		Docs:     []models.DocType{models.DocTypePrivacy},
		Requires: []string{"us_state_privacy.incentives_description"},
		active: func(c RuleContext) bool {
			us := c.profile().USStatePrivacy
			return us != nil && us.HasFinancialIncentives
		},
	},
	{
		ID:       "automated-decision-disclosure",
		Reason:   "when automated decision-making is used",
		Severity: models.SeverityError,
		Docs:     []models.DocType{models.DocTypePrivacy},
		Requires: []string{"legal_bases.profiling_disclosure"},
		active: func(c RuleContext) bool {
			lb := c.profile().LegalBases
			return lb != nil && lb.HasAutomatedDecisionMaking
		},
	},
	{
		ID:       "auto-renewal-cancellation",
		Reason:   "when subscriptions renew automatically",
		Severity: models.SeverityError,
		Docs:     []models.DocType{models.DocTypeToS},
		Requires: []string{"billing.cancellation_instructions"},
		active: func(c RuleContext) bool {
			b := c.profile().Billing
			return b != nil && b.AutoRenewalEnabled
		},
	},
}

func init() {
	for _, r := range rules {
		for _, p := range r.Requires {
			mustLookup(p)
		}
		for _, p := range r.Reveals {
			mustLookup(p)
		}
	}
}

// Rules returns every declared rule in declaration order.
func Rules() []Rule {
	return slices.Clone(rules)
}

// ActiveRules returns the rules that apply to ctx, in declaration order.
// Rules are pure functions of ctx.
func ActiveRules(ctx RuleContext) []Rule {
	var out []Rule
	for _, r := range rules {
		if r.scopedTo(ctx.DocTypes) && r.active(ctx) {
			out = append(out, r)
		}
	}
	return out
}

// RequiredField is one entry of the full requirement set.
type RequiredField struct {
	FieldSpec
	Severity models.Severity `json:"severity"`
	// Source is "base" for schema requirements, otherwise the rule ID.
	Source string `json:"source"`
	Reason string `json:"reason,omitempty"`
}

// RequirementSet is what a client needs to render and check a form.
type RequirementSet struct {
	Required []RequiredField `json:"required"`
	Visible  []string        `json:"visible"`
	Rules    []string        `json:"active_rules"`
}

// Requirements computes the full requirement set: base-mandatory fields for
// each selected document in canonical order, then fields required by active
// rules. A path is listed once; the first declaration wins.
func Requirements(ctx RuleContext) RequirementSet {
	docs := models.NormalizeDocTypes(ctx.DocTypes)
	ctx.DocTypes = docs

	set := RequirementSet{Required: []RequiredField{}, Visible: []string{}, Rules: []string{}}
	seen := make(map[string]bool)
	visible := make(map[string]bool)
	addVisible := func(path string) {
		if !visible[path] {
			visible[path] = true
			set.Visible = append(set.Visible, path)
		}
	}

	for _, doc := range docs {
		for _, f := range FieldsFor(doc) {
			if f.Requirement != Conditional {
				addVisible(f.Path)
			}
			if f.Requirement != Mandatory || seen[f.Path] {
				continue
			}
			seen[f.Path] = true
			set.Required = append(set.Required, RequiredField{FieldSpec: f, Severity: models.SeverityError, Source: "base"})
		}
	}
	for _, r := range ActiveRules(ctx) {
		set.Rules = append(set.Rules, r.ID)
		for _, p := range r.Requires {
			addVisible(p)
			if seen[p] {
				continue
			}
			seen[p] = true
			set.Required = append(set.Required, RequiredField{FieldSpec: mustLookup(p), Severity: r.Severity, Source: r.ID, Reason: r.Reason})
		}
		for _, p := range r.Reveals {
			addVisible(p)
		}
	}
	return set
}
