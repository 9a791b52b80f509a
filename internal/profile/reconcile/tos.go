package reconcile

import (
	"slices"
	"strings"

	"lexdraft/internal/profile/models"
	strs "lexdraft/pkg/platform/strings"
)

// Defaults attached when a plain category name becomes a full record.
const DefaultRetention = "2 years"

var (
	DefaultPurposes   = []string{"account", "security"}
	DefaultSharedWith = []string{"processors"}
)

// tosReducers builds the ToS reducer list. described names the categories the
// same submission also details in its data inventory.
func tosReducers(described []string) []sectionReducer[models.ToSForm] {
	return []sectionReducer[models.ToSForm]{
		{"organization", func(p *models.Profile, f *models.ToSForm) error { return mergeOrganization(p, f.Organization) }},
		{"product", reduceToSProduct},
		{"audience", reduceToSAudience},
		{"data_categories", func(p *models.Profile, f *models.ToSForm) error { return reduceToSDataCategories(p, f, described) }},
		{"acceptable_use", reduceToSAcceptableUse},
		{"intellectual_property", reduceToSIntellectualProperty},
		{"changes_policy", reduceToSChangesPolicy},
		{"disclaimers", reduceToSDisclaimers},
		{"dispute_resolution", reduceToSDisputeResolution},
	}
}

func reduceToSProduct(p *models.Profile, f *models.ToSForm) error {
	setString(&p.Product.ProductName, f.ProductName)
	setString(&p.Product.ServiceType, f.ServiceType)
	setList(&p.Product.Platforms, f.Platforms)
	setBool(&p.Product.HasBetaFeatures, f.HasBetaFeatures)
	setString(&p.Product.BetaNote, f.BetaNote)
	return nil
}

func reduceToSAudience(p *models.Profile, f *models.ToSForm) error {
	if f.MinimumAge != nil {
		if !validMinimumAge(*f.MinimumAge) {
			return fieldError("audience", "minimum_age", "must be 13, 16 or 18, got %d", *f.MinimumAge)
		}
		p.Audience.MinimumAge = *f.MinimumAge
	}
	setBool(&p.Audience.AllowUnder13WithParentalConsent, f.AllowUnder13WithParentalConsent)
	setString(&p.Audience.ParentalConsentFlowDescription, f.ParentalConsentFlowDescription)
	setBool(&p.Audience.AllowOrganizationalUse, f.AllowOrganizationalUse)
	return nil
}

// reduceToSDataCategories expands the plain name list into records. The list
// is authoritative for which categories exist, except that records named in
// described are kept after the listed ones. A name that already has a record
// keeps it; new names get the default source, purposes and retention.
func reduceToSDataCategories(p *models.Profile, f *models.ToSForm, described []string) error {
	if f.DataCategories == nil {
		return nil
	}
	for i, name := range f.DataCategories {
		if strings.TrimSpace(name) == "" {
			return fieldError("data_categories", indexed(i), "category name must not be empty")
		}
	}
	names := strs.DedupeAndTrim(f.DataCategories)
	out := make([]models.DataCategory, 0, len(names))
	for _, name := range names {
		if idx := p.FindDataCategory(name); idx >= 0 {
			out = append(out, p.DataCategories[idx])
			continue
		}
		out = append(out, DefaultCategory(name))
	}
	for _, dc := range p.DataCategories {
		if !slices.Contains(names, dc.Category) && slices.Contains(described, dc.Category) {
			out = append(out, dc)
		}
	}
	p.DataCategories = out
	return nil
}

// DefaultCategory is the record a bare category name expands to.
func DefaultCategory(name string) models.DataCategory {
	return models.DataCategory{
		Category:   name,
		Source:     models.DataSourceUser,
		Purposes:   append([]string(nil), DefaultPurposes...),
		Retention:  DefaultRetention,
		SharedWith: append([]string(nil), DefaultSharedWith...),
	}
}

func reduceToSAcceptableUse(p *models.Profile, f *models.ToSForm) error {
	au := &p.AcceptableUse
	setList(&au.ProhibitedActs, f.ProhibitedActs)
	setBool(&au.UGCEnabled, f.UGCEnabled)
	setString(&au.UGCLicenseToService, f.UGCLicenseToService)
	setString(&au.ModerationAppeals, f.ModerationAppeals)
	setString(&au.DMCAContact, f.DMCAContact)
	return nil
}

func reduceToSIntellectualProperty(p *models.Profile, f *models.ToSForm) error {
	setBool(&p.IntellectualProperty.ServiceIPRetainedByCompany, f.ServiceIPRetainedByCompany)
	setString(&p.IntellectualProperty.EndUserLicenseText, f.UserContentLicense)
	return nil
}

func reduceToSChangesPolicy(p *models.Profile, f *models.ToSForm) error {
	if f.LeadTimeDays != nil && *f.LeadTimeDays < 0 {
		return fieldError("changes_policy", "lead_time_days", "must not be negative")
	}
	setList(&p.ChangesPolicy.ChangeNoticeMethod, f.ChangeNoticeMethods)
	setIntPtr(&p.ChangesPolicy.LeadTimeDays, f.LeadTimeDays)
	return nil
}

func reduceToSDisclaimers(p *models.Profile, f *models.ToSForm) error {
	d := &p.Disclaimers
	setBool(&d.AsIsDisclaimer, f.AsIsDisclaimer)
	setString(&d.LiabilityCapDescription, f.LiabilityCapDescription)
	setBool(&d.ExcludeIndirectConsequential, f.ExcludeIndirectConsequential)
	setList(&d.CarveOuts, f.CarveOuts)
	setBool(&d.UserIndemnityEnabled, f.UserIndemnityEnabled)
	return nil
}

func reduceToSDisputeResolution(p *models.Profile, f *models.ToSForm) error {
	dr := &p.DisputeResolution
	if f.DisputePath != nil {
		path := models.DisputePath(strings.ToLower(strings.TrimSpace(*f.DisputePath)))
		switch path {
		case models.DisputePathCourts, models.DisputePathArbitration, models.DisputePathMediation:
			dr.DisputePath = path
		default:
			return fieldError("dispute_resolution", "dispute_path", "must be courts, arbitration or mediation, got %q", *f.DisputePath)
		}
	}
	setString(&dr.Venue, f.Venue)
	setBool(&dr.HasClassActionWaiver, f.HasClassActionWaiver)
	setBool(&dr.HasSmallClaimsCarveout, f.HasSmallClaimsCarveout)
	return nil
}
