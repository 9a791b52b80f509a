package reconcile

import (
	"strings"

	"lexdraft/internal/profile/models"
	strs "lexdraft/pkg/platform/strings"
)

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setIntPtr(dst **int, v *int) {
	if v != nil {
		n := *v
		*dst = &n
	}
}

// setList overwrites dst with the deduplicated list when the form carries one.
func setList(dst *[]string, v []string) {
	if v != nil {
		*dst = strs.DedupeAndTrim(v)
	}
}

// setMap replaces dst with a trimmed copy of v, rejecting blank keys.
func setMap(dst *map[string]string, v map[string]string, section, field string) error {
	if v == nil {
		return nil
	}
	out := make(map[string]string, len(v))
	for k, val := range v {
		key := strings.TrimSpace(k)
		if key == "" {
			return fieldError(section, field, "keys must not be empty")
		}
		out[key] = strings.TrimSpace(val)
	}
	*dst = out
	return nil
}

func validMinimumAge(age int) bool {
	return age == 13 || age == 16 || age == 18
}

func mergeOrganization(p *models.Profile, o *models.OrganizationPatch) error {
	if o == nil {
		return nil
	}
	org := &p.Organization
	setString(&org.CompanyLegalName, o.CompanyLegalName)
	setString(&org.RegisteredAddress, o.RegisteredAddress)
	setString(&org.PrivacyEmail, o.PrivacyEmail)
	setString(&org.LegalNoticesEmail, o.LegalNoticesEmail)
	setString(&org.EffectiveDate, o.EffectiveDate)
	setString(&org.VersionLabel, o.VersionLabel)
	setString(&org.PrivacyPolicyURL, o.PrivacyPolicyURL)
	setString(&org.TermsURL, o.TermsURL)
	setList(&org.Languages, o.Languages)
	if o.JurisdictionsServed != nil {
		js, err := models.ParseJurisdictions(o.JurisdictionsServed)
		if err != nil {
			return fieldError("organization", "jurisdictions_served", "%s", err.Error())
		}
		org.JurisdictionsServed = js
	}
	return nil
}

// addUnique appends v to list unless already present.
func addUnique(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || strs.ContainsFold(list, v) {
		return list
	}
	return append(list, v)
}
