package models

func validProfile() *Profile {
	p := NewDefaultProfile("Acme main")
	p.Organization = Organization{
		CompanyLegalName:    "Acme Inc.",
		RegisteredAddress:   "1 Main St",
		PrivacyEmail:        "privacy@acme.test",
		LegalNoticesEmail:   "legal@acme.test",
		JurisdictionsServed: []Jurisdiction{JurisdictionUS},
		EffectiveDate:       "2026-01-01",
	}
	p.Product = Product{ProductName: "Acme", Platforms: []string{"web"}}
	p.DataCategories = []DataCategory{{
		Category:   "Contact info",
		Source:     DataSourceUser,
		Purposes:   []string{"account"},
		SharedWith: []string{"processors"},
	}}
	p.AcceptableUse.ProhibitedActs = []string{"spam"}
	p.DisputeResolution.Venue = "Delaware"
	return p
}
