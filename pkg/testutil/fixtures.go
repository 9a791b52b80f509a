package testutil

import (
	"lexdraft/internal/profile/models"
)

// Ptr returns a pointer to v. Forms use pointers for every scalar.
func Ptr[T any](v T) *T { return &v }

// CompleteProfile returns a profile that satisfies every base requirement for
// both documents plus the jurisdiction rules for js. It defaults to the US.
func CompleteProfile(js ...models.Jurisdiction) *models.Profile {
	if len(js) == 0 {
		js = []models.Jurisdiction{models.JurisdictionUS}
	}
	p := models.NewDefaultProfile("Acme production")
	p.Organization = models.Organization{
		CompanyLegalName:    "Acme Analytics Ltd.",
		RegisteredAddress:   "1 Harbour Road, Tel Aviv",
		PrivacyEmail:        "privacy@acme.test",
		LegalNoticesEmail:   "legal@acme.test",
		JurisdictionsServed: append([]models.Jurisdiction(nil), js...),
		EffectiveDate:       "2026-01-01",
	}
	p.Product = models.Product{
		ProductName: "Acme Insights",
		ServiceType: "SaaS analytics",
		Platforms:   []string{"web", "ios"},
	}
	p.DataCategories = []models.DataCategory{{
		Category:   "Contact info",
		Source:     models.DataSourceUser,
		Purposes:   []string{"account", "support"},
		Retention:  "2 years",
		SharedWith: []string{"processors"},
	}}
	p.AcceptableUse.ProhibitedActs = []string{"scraping", "reverse engineering"}
	p.DisputeResolution.Venue = "Courts of Delaware"

	if models.ContainsAny(js, models.JurisdictionEU, models.JurisdictionUK) {
		p.Audience.MinimumAge = 16
		p.LegalBases = &models.LegalBases{
			ControllerOrProcessor: "controller",
			LawfulBasesPerPurpose: map[string]string{"account": "contract", "support": "legitimate interests"},
		}
	}
	if models.ContainsAny(js, models.JurisdictionUS, models.JurisdictionCA) {
		p.USStatePrivacy = &models.USStatePrivacy{RequestChannels: []string{"email", "web form"}}
	}
	return p
}

// CompleteForm returns a unified form carrying only the form-only fields, so
// reconciling it leaves a complete profile unchanged.
func CompleteForm() *models.UnifiedForm {
	return &models.UnifiedForm{
		ToSForm: models.ToSForm{
			ProductDescription: Ptr("Dashboards that turn product usage into weekly insight reports for teams."),
		},
	}
}
