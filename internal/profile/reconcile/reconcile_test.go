package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"lexdraft/internal/profile/models"
	dErrors "lexdraft/pkg/domain-errors"
)

type ReconcileSuite struct {
	suite.Suite
}

func TestReconcileSuite(t *testing.T) {
	suite.Run(t, new(ReconcileSuite))
}

func ptr[T any](v T) *T { return &v }

func baseProfile() *models.Profile {
	p := models.NewDefaultProfile("Acme main")
	p.ID = [16]byte{1}
	p.Organization = models.Organization{
		CompanyLegalName:    "Acme Inc.",
		RegisteredAddress:   "1 Main St",
		PrivacyEmail:        "privacy@acme.test",
		LegalNoticesEmail:   "legal@acme.test",
		JurisdictionsServed: []models.Jurisdiction{models.JurisdictionUS},
	}
	p.Product = models.Product{ProductName: "Acme", Platforms: []string{"web"}}
	p.DataCategories = []models.DataCategory{{
		Category:   "Contact info",
		Source:     models.DataSourceThirdParty,
		Purposes:   []string{"billing"},
		Retention:  "7 years",
		SharedWith: []string{"payment processor"},
	}}
	p.Vendors = []models.Vendor{{Name: "Stripe", Role: "processor", Use: "payments"}}
	p.UserRights = &models.UserRights{VerificationMethod: "email link"}
	p.DisputeResolution.Venue = "Delaware"
	return p
}

func topLevelKeys(s *ReconcileSuite, p *models.Profile) map[string]bool {
	raw, err := json.Marshal(p)
	s.Require().NoError(err)
	var m map[string]json.RawMessage
	s.Require().NoError(json.Unmarshal(raw, &m))
	keys := make(map[string]bool, len(m))
	for k := range m {
		keys[k] = true
	}
	return keys
}

func (s *ReconcileSuite) TestToSDataCategories() {
	s.Run("expands names with defaults and keeps existing records", func() {
		form := &models.ToSForm{DataCategories: []string{"Usage data", " Contact info", "Usage data"}}

		out, err := Reconcile(baseProfile(), form, models.DocTypeToS)
		s.Require().NoError(err)
		s.Require().Len(out.DataCategories, 2)

		s.Equal(DefaultCategory("Usage data"), out.DataCategories[0])
		s.Equal("Contact info", out.DataCategories[1].Category)
		s.Equal(models.DataSourceThirdParty, out.DataCategories[1].Source)
		s.Equal("7 years", out.DataCategories[1].Retention)
	})

	s.Run("every name maps to exactly one record", func() {
		names := []string{"A", "B", "C", "D"}
		out, err := Reconcile(baseProfile(), &models.ToSForm{DataCategories: names}, models.DocTypeToS)
		s.Require().NoError(err)
		s.Require().Len(out.DataCategories, len(names))
		for i, name := range names {
			s.Equal(name, out.DataCategories[i].Category)
		}
	})

	s.Run("empty category name is a reconciliation error", func() {
		form := &models.ToSForm{DataCategories: []string{"Usage data", "  "}}

		out, err := Reconcile(baseProfile(), form, models.DocTypeToS)
		s.Require().Error(err)
		s.Nil(out)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		errs := Errors(err)
		s.Require().Len(errs, 1)
		s.Equal("data_categories", errs[0].Section)
		s.Equal("[1]", errs[0].Field)
	})

	s.Run("omitted list leaves records untouched", func() {
		out, err := Reconcile(baseProfile(), &models.ToSForm{}, models.DocTypeToS)
		s.Require().NoError(err)
		s.Equal(baseProfile().DataCategories, out.DataCategories)
	})
}

func (s *ReconcileSuite) TestShallowSectionMerge() {
	form := &models.ToSForm{
		ProductName:     ptr("Acme Cloud"),
		HasBetaFeatures: ptr(true),
		Venue:           ptr(" Tel Aviv "),
		DisputePath:     ptr("Arbitration"),
		MinimumAge:      ptr(16),
	}

	out, err := Reconcile(baseProfile(), form, models.DocTypeToS)
	s.Require().NoError(err)

	s.Equal("Acme Cloud", out.Product.ProductName)
	s.True(out.Product.HasBetaFeatures)
	s.Equal([]string{"web"}, out.Product.Platforms, "absent fields are not nulled out")
	s.Equal("Tel Aviv", out.DisputeResolution.Venue)
	s.Equal(models.DisputePathArbitration, out.DisputeResolution.DisputePath)
	s.Equal(16, out.Audience.MinimumAge)
	s.Equal("privacy@acme.test", out.Organization.PrivacyEmail)
	s.Equal(baseProfile().Vendors, out.Vendors)
	s.Equal(baseProfile().UserRights, out.UserRights)
}

func (s *ReconcileSuite) TestInputIsNotModified() {
	in := baseProfile()
	form := &models.ToSForm{
		DataCategories: []string{"Usage data"},
		ProhibitedActs: []string{"scraping"},
		Organization:   &models.OrganizationPatch{JurisdictionsServed: []string{"EU"}},
	}

	_, err := Reconcile(in, form, models.DocTypeToS)
	s.Require().NoError(err)
	s.Equal(baseProfile(), in)
}

func (s *ReconcileSuite) TestInvalidValues() {
	cases := []struct {
		name    string
		form    models.DocumentForm
		doc     models.DocType
		section string
	}{
		{"minimum age", &models.ToSForm{MinimumAge: ptr(15)}, models.DocTypeToS, "audience"},
		{"dispute path", &models.ToSForm{DisputePath: ptr("duel")}, models.DocTypeToS, "dispute_resolution"},
		{"jurisdiction", &models.ToSForm{Organization: &models.OrganizationPatch{JurisdictionsServed: []string{"Mars"}}}, models.DocTypeToS, "organization"},
		{"gdpr role", &models.PrivacyForm{GDPR: &models.GDPRInfo{Role: ptr("owner")}}, models.DocTypePrivacy, "legal_bases"},
		{"data source", &models.PrivacyForm{DataInventory: []models.DataInventoryItem{{Category: "Usage", Sources: []string{"telepathy"}}}}, models.DocTypePrivacy, "data_inventory"},
		{"vendor name", &models.PrivacyForm{Vendors: []models.VendorEntry{{Name: " "}}}, models.DocTypePrivacy, "vendors"},
		{"form for wrong document", &models.ToSForm{}, models.DocTypePrivacy, "form"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := Reconcile(baseProfile(), tc.form, tc.doc)
			s.Require().Error(err)
			errs := Errors(err)
			s.Require().Len(errs, 1)
			s.Equal(tc.section, errs[0].Section)
		})
	}
}

func (s *ReconcileSuite) TestPrivacyInventoryUpsert() {
	form := &models.PrivacyForm{
		DataInventory: []models.DataInventoryItem{
			{Category: "Contact info", Purposes: []string{"support", "support"}, Retention: ptr("3 years")},
			{Category: "Device data", Sources: []string{"Third party", "user"}, Purposes: []string{"analytics"}, SharedWith: []string{"analytics vendor"}},
		},
		GDPR: &models.GDPRInfo{
			Role:       ptr("Controller"),
			LegalBases: map[string]string{" support ": "contract"},
		},
		USStatePrivacy: &models.USStatePrivacyInfo{RequestChannels: []string{"email", "web form"}},
		Vendors:        []models.VendorEntry{{Name: "Stripe", Region: "US"}},
	}

	out, err := Reconcile(baseProfile(), form, models.DocTypePrivacy)
	s.Require().NoError(err)
	s.Require().Len(out.DataCategories, 2)

	contact := out.DataCategories[0]
	s.Equal([]string{"support"}, contact.Purposes)
	s.Equal("3 years", contact.Retention)
	s.Equal(models.DataSourceThirdParty, contact.Source, "source unchanged when the item lists none")
	s.Equal([]string{"payment processor"}, contact.SharedWith)

	device := out.DataCategories[1]
	s.Equal(models.DataSourceThirdParty, device.Source)
	s.Equal([]string{"analytics vendor"}, device.SharedWith)

	s.Equal("controller", out.LegalBases.ControllerOrProcessor)
	s.Equal(map[string]string{"support": "contract"}, out.LegalBases.LawfulBasesPerPurpose)
	s.Equal([]string{"email", "web form"}, out.USStatePrivacy.RequestChannels)

	s.Require().Len(out.Vendors, 1)
	s.Equal("payments", out.Vendors[0].Use)
	s.Equal([]string{"US"}, out.Vendors[0].Regions)
}

func (s *ReconcileSuite) TestReconcileAllIsIdempotent() {
	form := &models.UnifiedForm{
		ToSForm: models.ToSForm{
			DataCategories:      []string{"Contact info", "Usage data"},
			ChangeNoticeMethods: []string{"email", "in-app"},
			Organization:        &models.OrganizationPatch{JurisdictionsServed: []string{"US", "EU"}},
		},
		DataInventory: []models.DataInventoryItem{{Category: "Usage data", Sources: []string{"automated"}}},
		GDPR:          &models.GDPRInfo{Role: ptr("processor"), LegalBases: map[string]string{"account": "contract"}},
		Vendors:       []models.VendorEntry{{Name: "Segment", Role: "processor", Region: "EU"}},
	}
	docs := []models.DocType{models.DocTypePrivacy, models.DocTypeToS}

	once, err := ReconcileAll(baseProfile(), form, docs)
	s.Require().NoError(err)
	twice, err := ReconcileAll(once, form, docs)
	s.Require().NoError(err)
	s.Equal(once, twice)

	s.Equal(models.DataSourceAutomated, once.DataCategories[1].Source, "privacy runs after tos")
	s.Equal([]models.Jurisdiction{models.JurisdictionUS, models.JurisdictionEU}, once.Organization.JurisdictionsServed)

	for doc := range map[models.DocType]bool{models.DocTypeToS: true, models.DocTypePrivacy: true} {
		single, err := Reconcile(baseProfile(), form, doc)
		s.Require().NoError(err)
		again, err := Reconcile(single, form, doc)
		s.Require().NoError(err)
		s.Equal(single, again, "doc %s", doc)
	}
}

func (s *ReconcileSuite) TestUnifiedListKeepsInventoryRecords() {
	in := baseProfile()
	in.DataCategories = append(in.DataCategories,
		models.DataCategory{
			Category:   "Usage data",
			Source:     models.DataSourceAutomated,
			Purposes:   []string{"analytics"},
			Retention:  "13 months",
			SharedWith: []string{"ad partners"},
		},
		models.DataCategory{Category: "Location", Source: models.DataSourceAutomated, Retention: "30 days"},
	)
	form := &models.UnifiedForm{
		ToSForm: models.ToSForm{DataCategories: []string{"Contact info"}},
		DataInventory: []models.DataInventoryItem{
			{Category: "Usage data", Purposes: []string{"analytics", "product improvement"}},
		},
	}
	both := []models.DocType{models.DocTypeToS, models.DocTypePrivacy}

	assertUsage := func(p *models.Profile) {
		s.Require().Len(p.DataCategories, 2, "unlisted and undescribed categories are dropped")
		s.Equal("Contact info", p.DataCategories[0].Category)
		s.Equal("7 years", p.DataCategories[0].Retention)

		usage := p.DataCategories[1]
		s.Equal("Usage data", usage.Category)
		s.Equal(models.DataSourceAutomated, usage.Source)
		s.Equal("13 months", usage.Retention)
		s.Equal([]string{"ad partners"}, usage.SharedWith)
		s.Equal([]string{"analytics", "product improvement"}, usage.Purposes)
	}

	s.Run("all documents at once", func() {
		out, err := ReconcileAll(in, form, both)
		s.Require().NoError(err)
		assertUsage(out)
	})

	s.Run("one document at a time", func() {
		afterToS, err := Reconcile(in, form, models.DocTypeToS)
		s.Require().NoError(err)
		out, err := Reconcile(afterToS, form, models.DocTypePrivacy)
		s.Require().NoError(err)
		assertUsage(out)
	})

	s.Run("tos only keeps the described record untouched", func() {
		out, err := ReconcileAll(in, form, []models.DocType{models.DocTypeToS})
		s.Require().NoError(err)
		s.Require().Len(out.DataCategories, 2)
		s.Equal(in.DataCategories[1], out.DataCategories[1])
	})

	s.Run("a bare tos form has no inventory to honour", func() {
		out, err := Reconcile(in, &models.ToSForm{DataCategories: []string{"Contact info"}}, models.DocTypeToS)
		s.Require().NoError(err)
		s.Len(out.DataCategories, 1)
	})
}

func (s *ReconcileSuite) TestNeverShrinksTopLevelFields() {
	forms := []models.DocumentForm{
		&models.ToSForm{},
		&models.ToSForm{DataCategories: []string{}, ProhibitedActs: []string{}},
		&models.PrivacyForm{Security: []string{"encryption"}},
		&models.PrivacyForm{},
	}
	in := baseProfile()
	in.Tracking = &models.Tracking{Technologies: []string{"cookies"}}
	before := topLevelKeys(s, in)

	for _, form := range forms {
		out, err := Reconcile(in, form, form.DocType())
		s.Require().NoError(err)
		after := topLevelKeys(s, out)
		for k := range before {
			s.True(after[k], "field %s dropped by %T", k, form)
		}
	}
}

func (s *ReconcileSuite) TestMergeProfile() {
	existing := baseProfile()
	existing.LegalBases = &models.LegalBases{ControllerOrProcessor: "controller"}

	incoming := baseProfile()
	incoming.ID = [16]byte{9}
	incoming.Name = "Renamed"
	incoming.UserRights = nil
	incoming.LegalBases = nil
	incoming.Vendors = nil
	incoming.Product.ProductName = "Acme 2"

	out := MergeProfile(existing, incoming)
	s.Equal(existing.ID, out.ID)
	s.Equal("Renamed", out.Name)
	s.Equal("Acme 2", out.Product.ProductName)
	s.Equal(existing.UserRights, out.UserRights)
	s.Equal(existing.LegalBases, out.LegalBases)
	s.Equal(existing.Vendors, out.Vendors)

	out.LegalBases.ControllerOrProcessor = "processor"
	s.Equal("controller", existing.LegalBases.ControllerOrProcessor)
}
