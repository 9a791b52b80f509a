package reconcile

import (
	"fmt"
	"strings"

	"lexdraft/internal/profile/models"
	strs "lexdraft/pkg/platform/strings"
)

var privacyReducers = []sectionReducer[models.PrivacyForm]{
	{"organization", func(p *models.Profile, f *models.PrivacyForm) error { return mergeOrganization(p, f.Organization) }},
	{"product", reducePrivacyProduct},
	{"audience", reducePrivacyAudience},
	{"data_categories", reduceDataInventory},
	{"vendors", reduceVendors},
	{"tracking", reduceTracking},
	{"security", reduceSecurity},
	{"changes_policy", reducePrivacyChangesPolicy},
	{"legal_bases", reduceLegalBases},
	{"us_state_privacy", reduceUSStatePrivacy},
	{"international_transfers", reduceTransfers},
}

func indexed(i int) string {
	return fmt.Sprintf("[%d]", i)
}

func reducePrivacyProduct(p *models.Profile, f *models.PrivacyForm) error {
	setString(&p.Product.ProductName, f.ProductName)
	setList(&p.Product.Platforms, f.Platforms)
	return nil
}

func reducePrivacyAudience(p *models.Profile, f *models.PrivacyForm) error {
	if f.MinAge != nil {
		if !validMinimumAge(*f.MinAge) {
			return fieldError("audience", "minimum_age", "must be 13, 16 or 18, got %d", *f.MinAge)
		}
		p.Audience.MinimumAge = *f.MinAge
	}
	setBool(&p.Audience.AllowUnder13WithParentalConsent, f.Under13ParentalConsent)
	setString(&p.Audience.ParentalConsentFlowDescription, f.ParentContactMethod)
	return nil
}

// ParseDataSource maps a free-form source label onto the closed source set.
func ParseDataSource(s string) (models.DataSource, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	switch models.DataSource(normalized) {
	case models.DataSourceUser:
		return models.DataSourceUser, true
	case models.DataSourceAutomated:
		return models.DataSourceAutomated, true
	case models.DataSourceThirdParty:
		return models.DataSourceThirdParty, true
	}
	return "", false
}

// reduceDataInventory upserts inventory items by category name. Categories
// the inventory does not mention are kept.
func reduceDataInventory(p *models.Profile, f *models.PrivacyForm) error {
	for i, item := range f.DataInventory {
		name := strings.TrimSpace(item.Category)
		if name == "" {
			return fieldError("data_inventory", indexed(i)+".category", "category name must not be empty")
		}
		var source models.DataSource
		if len(item.Sources) > 0 {
			parsed, ok := ParseDataSource(item.Sources[0])
			if !ok {
				return fieldError("data_inventory", indexed(i)+".sources", "unknown data source %q", item.Sources[0])
			}
			source = parsed
		}

		idx := p.FindDataCategory(name)
		if idx < 0 {
			p.DataCategories = append(p.DataCategories, models.DataCategory{
				Category:   name,
				Source:     models.DataSourceUser,
				Purposes:   []string{},
				SharedWith: []string{},
			})
			idx = len(p.DataCategories) - 1
		}
		dc := &p.DataCategories[idx]
		if source != "" {
			dc.Source = source
		}
		setList(&dc.Purposes, item.Purposes)
		setList(&dc.SharedWith, item.SharedWith)
		setString(&dc.Retention, item.Retention)
	}
	return nil
}

// reduceVendors upserts vendors by name so vendor details the form does not
// carry (such as the use description) survive.
func reduceVendors(p *models.Profile, f *models.PrivacyForm) error {
	for i, v := range f.Vendors {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return fieldError("vendors", indexed(i)+".name", "vendor name must not be empty")
		}
		role := strings.ToLower(strings.TrimSpace(v.Role))
		switch role {
		case "", "processor", "controller", "service_provider":
		default:
			return fieldError("vendors", indexed(i)+".role", "unknown vendor role %q", v.Role)
		}

		idx := -1
		for j := range p.Vendors {
			if p.Vendors[j].Name == name {
				idx = j
				break
			}
		}
		if idx < 0 {
			p.Vendors = append(p.Vendors, models.Vendor{Name: name})
			idx = len(p.Vendors) - 1
		}
		vendor := &p.Vendors[idx]
		if role != "" {
			vendor.Role = role
		}
		setList(&vendor.DataCategories, v.DataCategories)
		vendor.Regions = addUnique(vendor.Regions, v.Region)
		if url := strings.TrimSpace(v.PolicyURL); url != "" {
			vendor.PolicyURL = url
		}
	}
	return nil
}

func reduceTracking(p *models.Profile, f *models.PrivacyForm) error {
	if f.Tracking == nil {
		return nil
	}
	if p.Tracking == nil {
		p.Tracking = &models.Tracking{}
	}
	setList(&p.Tracking.Technologies, f.Tracking.Tech)
	setList(&p.Tracking.Tools, f.Tracking.Tools)
	return setMap(&p.Tracking.ConsentModelByRegion, f.Tracking.ConsentModel, "tracking", "consent_model")
}

func reduceSecurity(p *models.Profile, f *models.PrivacyForm) error {
	if f.Security == nil {
		return nil
	}
	if p.Security == nil {
		p.Security = &models.SecurityMeasures{}
	}
	setList(&p.Security.HighLevelMeasures, f.Security)
	return nil
}

func reducePrivacyChangesPolicy(p *models.Profile, f *models.PrivacyForm) error {
	if f.ChangeNotice == nil {
		return nil
	}
	if f.ChangeNotice.LeadTimeDays != nil && *f.ChangeNotice.LeadTimeDays < 0 {
		return fieldError("changes_policy", "lead_time_days", "must not be negative")
	}
	setList(&p.ChangesPolicy.ChangeNoticeMethod, f.ChangeNotice.Methods)
	setIntPtr(&p.ChangesPolicy.LeadTimeDays, f.ChangeNotice.LeadTimeDays)
	return nil
}

func reduceLegalBases(p *models.Profile, f *models.PrivacyForm) error {
	g := f.GDPR
	if g == nil {
		return nil
	}
	if p.LegalBases == nil {
		p.LegalBases = &models.LegalBases{}
	}
	lb := p.LegalBases
	if g.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*g.Role))
		if role != "controller" && role != "processor" {
			return fieldError("legal_bases", "controller_or_processor", "must be controller or processor, got %q", *g.Role)
		}
		lb.ControllerOrProcessor = role
	}
	setString(&lb.LegitimateInterestsText, g.LegitimateInterestsText)
	return setMap(&lb.LawfulBasesPerPurpose, g.LegalBases, "legal_bases", "lawful_bases_per_purpose")
}

func reduceUSStatePrivacy(p *models.Profile, f *models.PrivacyForm) error {
	us := f.USStatePrivacy
	if us == nil {
		return nil
	}
	if p.USStatePrivacy == nil {
		p.USStatePrivacy = &models.USStatePrivacy{}
	}
	dst := p.USStatePrivacy
	setBool(&dst.SellsOrSharesForAds, us.SellOrShare)
	if us.SensitivePI != nil {
		dst.SensitivePICategories = strs.DedupeAndTrim(us.SensitivePI)
		dst.CollectsSensitivePI = len(dst.SensitivePICategories) > 0
	}
	setList(&dst.RequestChannels, us.RequestChannels)
	return nil
}

func reduceTransfers(p *models.Profile, f *models.PrivacyForm) error {
	t := f.Transfers
	if t == nil {
		return nil
	}
	if p.InternationalTransfers == nil {
		p.InternationalTransfers = &models.InternationalTransfers{}
	}
	setList(&p.InternationalTransfers.TransferMechanisms, t.Mechanisms)
	setList(&p.InternationalTransfers.HostingRegions, t.HostingRegions)
	return nil
}
