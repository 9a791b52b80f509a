package compliance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"lexdraft/internal/profile/models"
	"lexdraft/pkg/testutil"
)

var (
	tos     = []models.DocType{models.DocTypeToS}
	privacy = []models.DocType{models.DocTypePrivacy}
	both    = []models.DocType{models.DocTypeToS, models.DocTypePrivacy}
)

func TestFieldsFor(t *testing.T) {
	t.Run("tos-only fields are not listed for privacy", func(t *testing.T) {
		paths := pathsOf(FieldsFor(models.DocTypePrivacy))
		assert.NotContains(t, paths, "dispute_resolution.venue")
		assert.Contains(t, paths, "organization.privacy_email")
	})

	t.Run("keeps registry order", func(t *testing.T) {
		paths := pathsOf(FieldsFor(models.DocTypeToS))
		require.NotEmpty(t, paths)
		assert.Equal(t, "organization.company_legal_name", paths[0])
	})

	t.Run("unknown document type panics", func(t *testing.T) {
		assert.Panics(t, func() { FieldsFor("eula") })
	})

	t.Run("lookup resolves registered paths", func(t *testing.T) {
		f, ok := Lookup("legal_bases.lawful_bases_per_purpose")
		require.True(t, ok)
		assert.Equal(t, Conditional, f.Requirement)

		_, ok = Lookup("nope")
		assert.False(t, ok)
	})
}

func pathsOf(fields []FieldSpec) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Path
	}
	return out
}

func ruleIDs(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}

func TestActiveRules(t *testing.T) {
	t.Run("jurisdiction rules follow the served set", func(t *testing.T) {
		ctx := RuleContext{Jurisdictions: []models.Jurisdiction{models.JurisdictionUK}, DocTypes: privacy}
		assert.Equal(t, []string{"eu-uk-controller-role", "eu-uk-lawful-bases", "eea-uk-minimum-age"}, ruleIDs(ActiveRules(ctx)))

		ctx.Jurisdictions = []models.Jurisdiction{models.JurisdictionCA}
		assert.Equal(t, []string{"us-ca-request-channels"}, ruleIDs(ActiveRules(ctx)))

		ctx.Jurisdictions = []models.Jurisdiction{models.JurisdictionAU, models.JurisdictionIL}
		assert.Empty(t, ActiveRules(ctx))
	})

	t.Run("feature flags activate document-scoped rules", func(t *testing.T) {
		p := testutil.CompleteProfile(models.JurisdictionAU)
		p.Product.HasBetaFeatures = true
		p.AcceptableUse.UGCEnabled = true
		p.DisputeResolution.DisputePath = models.DisputePathArbitration
		p.LegalBases = &models.LegalBases{HasAutomatedDecisionMaking: true}

		ctx := RuleContext{Jurisdictions: p.Organization.JurisdictionsServed, DocTypes: tos, View: View{Profile: p}}
		assert.Equal(t, []string{"beta-note", "ugc-license", "arbitration-terms"}, ruleIDs(ActiveRules(ctx)))

		ctx.DocTypes = privacy
		assert.Equal(t, []string{"automated-decision-disclosure"}, ruleIDs(ActiveRules(ctx)))
	})

	t.Run("rules are pure", func(t *testing.T) {
		ctx := RuleContext{Jurisdictions: []models.Jurisdiction{models.JurisdictionEU, models.JurisdictionUS}, DocTypes: both}
		assert.Equal(t, ruleIDs(ActiveRules(ctx)), ruleIDs(ActiveRules(ctx)))
	})
}

func TestRequirements(t *testing.T) {
	t.Run("dedupes paths and keeps base fields first", func(t *testing.T) {
		set := Requirements(RuleContext{Jurisdictions: []models.Jurisdiction{models.JurisdictionEU}, DocTypes: both})

		seen := map[string]int{}
		for _, r := range set.Required {
			seen[r.Path]++
		}
		for path, n := range seen {
			assert.Equal(t, 1, n, "path %s listed more than once", path)
		}

		last := set.Required[len(set.Required)-1]
		assert.Equal(t, "legal_bases.lawful_bases_per_purpose", last.Path)
		assert.Equal(t, "eu-uk-lawful-bases", last.Source)
		assert.Contains(t, set.Visible, "audience.eea_uk_override_16")
	})

	t.Run("arbitration only reveals fields", func(t *testing.T) {
		p := testutil.CompleteProfile()
		ctx := RuleContext{Jurisdictions: p.Organization.JurisdictionsServed, DocTypes: tos, View: View{Profile: p}}
		assert.NotContains(t, Requirements(ctx).Visible, "dispute_resolution.has_class_action_waiver")

		p.DisputeResolution.DisputePath = models.DisputePathArbitration
		set := Requirements(ctx)
		assert.Contains(t, set.Visible, "dispute_resolution.has_class_action_waiver")
		assert.NotContains(t, pathsOfRequired(set.Required), "dispute_resolution.has_class_action_waiver")
	})
}

func pathsOfRequired(reqs []RequiredField) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Path
	}
	return out
}

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.validator = NewValidator()
}

func (s *ValidatorSuite) errorGaps(gaps []models.Gap) []models.Gap {
	return models.Blocking(gaps)
}

func (s *ValidatorSuite) TestCompleteProfileHasNoGaps() {
	for _, js := range [][]models.Jurisdiction{
		{models.JurisdictionUS},
		{models.JurisdictionEU, models.JurisdictionUK},
		{models.JurisdictionCA, models.JurisdictionEU},
		{models.JurisdictionOther},
	} {
		gaps := s.validator.Validate(testutil.CompleteProfile(js...), testutil.CompleteForm(), both)
		s.Empty(gaps, "jurisdictions %v", js)
	}
}

func (s *ValidatorSuite) TestEULegalBasesRequired() {
	for _, docs := range [][]models.DocType{tos, privacy, both} {
		p := testutil.CompleteProfile(models.JurisdictionEU)
		p.LegalBases.LawfulBasesPerPurpose = nil
		p.Product.ServiceType = ""

		gaps := s.errorGaps(s.validator.Validate(p, testutil.CompleteForm(), docs))
		found := false
		for _, g := range gaps {
			if strings.Contains(g.Message, "Legal bases") {
				found = true
				s.Equal("legal_bases.lawful_bases_per_purpose", g.Field)
			}
		}
		s.True(found, "docs %v: expected a legal bases gap in %v", docs, gaps)
	}
}

func (s *ValidatorSuite) TestRequestChannelsOnlyForUSAndCanada() {
	p := testutil.CompleteProfile(models.JurisdictionAU)
	p.USStatePrivacy = nil
	s.Empty(s.validator.Validate(p, testutil.CompleteForm(), both))

	p.Organization.JurisdictionsServed = []models.Jurisdiction{models.JurisdictionCA}
	gaps := s.validator.Validate(p, testutil.CompleteForm(), privacy)
	s.Require().Len(gaps, 1)
	s.Equal("us_state_privacy.request_channels", gaps[0].Field)
	s.Equal("us-ca-request-channels", gaps[0].Rule)
	s.Contains(gaps[0].Message, "when serving the US or Canada")
}

func (s *ValidatorSuite) TestDocumentScopedFields() {
	p := testutil.CompleteProfile()
	p.DisputeResolution.Venue = ""

	s.Empty(s.validator.Validate(p, testutil.CompleteForm(), privacy), "venue is not a privacy field")

	gaps := s.validator.Validate(p, testutil.CompleteForm(), tos)
	s.Require().Len(gaps, 1)
	s.Equal(models.SeverityError, gaps[0].Severity)
	s.Contains(gaps[0].Message, "venue")

	s.Run("form-only fields resolve on the form", func() {
		gaps := s.validator.Validate(testutil.CompleteProfile(), &models.UnifiedForm{}, tos)
		s.Require().Len(gaps, 1)
		s.Equal("product_description", gaps[0].Field)
	})

	s.Run("basic product fields apply to every document", func() {
		p := testutil.CompleteProfile()
		p.Product.ServiceType = ""
		for _, docs := range [][]models.DocType{tos, privacy} {
			gaps := s.validator.Validate(p, &models.UnifiedForm{}, docs)
			fields := make([]string, 0, len(gaps))
			for _, g := range gaps {
				fields = append(fields, g.Field)
			}
			s.Equal([]string{"product_description", "product.service_type"}, fields, "docs %v", docs)
		}
	})
}

func (s *ValidatorSuite) TestSameEditJurisdictionFiresRules() {
	p := testutil.CompleteProfile(models.JurisdictionUS)
	form := testutil.CompleteForm()
	form.Organization = &models.OrganizationPatch{JurisdictionsServed: []string{"US", "UK"}}

	gaps := s.validator.Validate(p, form, privacy)
	fields := make([]string, 0, len(gaps))
	for _, g := range gaps {
		fields = append(fields, g.Field)
	}
	s.Equal([]string{"legal_bases.controller_or_processor", "legal_bases.lawful_bases_per_purpose", ""}, fields)
	s.Equal(models.SeverityWarn, gaps[2].Severity, "minimum age advisory")
	s.Equal("eea-uk-minimum-age", gaps[2].Rule)
}

func (s *ValidatorSuite) TestMinimumAgeAdvisoryDoesNotBlock() {
	p := testutil.CompleteProfile(models.JurisdictionEU)
	p.Audience.MinimumAge = 13

	gaps := s.validator.Validate(p, testutil.CompleteForm(), both)
	s.Require().Len(gaps, 1)
	s.False(models.HasBlocking(gaps))

	p.Audience.EEAUKOverride16 = true
	s.Empty(s.validator.Validate(p, testutil.CompleteForm(), both))
}

func (s *ValidatorSuite) TestFeatureFlagRules() {
	p := testutil.CompleteProfile()
	form := testutil.CompleteForm()
	form.HasBetaFeatures = testutil.Ptr(true)
	form.UGCEnabled = testutil.Ptr(true)
	form.AllowUnder13WithParentalConsent = testutil.Ptr(true)
	p.Billing.AutoRenewalEnabled = true

	gaps := s.validator.Validate(p, form, tos)
	rules := make([]string, 0, len(gaps))
	for _, g := range gaps {
		rules = append(rules, g.Rule)
	}
	s.Equal([]string{"beta-note", "ugc-license", "parental-consent-flow", "auto-renewal-cancellation"}, rules)

	form.BetaNote = testutil.Ptr("Beta features may change without notice.")
	form.UGCLicenseToService = testutil.Ptr("Non-exclusive license to host and display.")
	form.ParentalConsentFlowDescription = testutil.Ptr("Verified parent email confirmation.")
	p.Billing.CancellationInstructions = "Cancel any time from account settings."
	s.Empty(s.validator.Validate(p, form, tos))
}

func (s *ValidatorSuite) TestReconciliationFailuresAreGaps() {
	form := testutil.CompleteForm()
	form.DataCategories = []string{"Usage data", ""}

	gaps := s.validator.Validate(testutil.CompleteProfile(), form, tos)
	s.Require().Len(gaps, 1)
	s.Equal("reconciliation", gaps[0].Rule)
	s.Equal("data_categories.[1]", gaps[0].Field)
}

func (s *ValidatorSuite) TestStructuralViolationsNotDuplicated() {
	p := testutil.CompleteProfile()
	p.Organization.JurisdictionsServed = nil
	p.Organization.PrivacyEmail = "not-an-email"

	gaps := s.validator.Validate(p, testutil.CompleteForm(), privacy)
	fields := make([]string, 0, len(gaps))
	for _, g := range gaps {
		fields = append(fields, g.Field)
	}
	s.Equal([]string{"organization.jurisdictions_served", "organization.privacy_email"}, fields)
}

func (s *ValidatorSuite) TestDeterministic() {
	p := testutil.CompleteProfile(models.JurisdictionEU, models.JurisdictionUS)
	p.LegalBases = nil
	p.USStatePrivacy = nil
	p.Product.Platforms = nil

	first := s.validator.Validate(p, &models.UnifiedForm{}, both)
	second := s.validator.Validate(p, &models.UnifiedForm{}, both)
	s.Require().NotEmpty(first)
	s.Equal(first, second)
}
