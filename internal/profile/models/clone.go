package models

import (
	"maps"
	"slices"
)

// Clone returns a deep copy. Requests work on a clone so that concurrent
// writers to the same stored profile are never observed mid-request.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Organization.JurisdictionsServed = slices.Clone(p.Organization.JurisdictionsServed)
	c.Organization.Languages = slices.Clone(p.Organization.Languages)
	c.Product.Platforms = slices.Clone(p.Product.Platforms)
	c.DataCategories = cloneEach(p.DataCategories, DataCategory.clone)
	c.AcceptableUse.ProhibitedActs = slices.Clone(p.AcceptableUse.ProhibitedActs)
	c.ChangesPolicy.ChangeNoticeMethod = slices.Clone(p.ChangesPolicy.ChangeNoticeMethod)
	c.ChangesPolicy.LeadTimeDays = cloneInt(p.ChangesPolicy.LeadTimeDays)
	c.Disclaimers.CarveOuts = slices.Clone(p.Disclaimers.CarveOuts)
	c.Vendors = cloneEach(p.Vendors, Vendor.clone)

	if p.Tracking != nil {
		t := *p.Tracking
		t.Technologies = slices.Clone(t.Technologies)
		t.Tools = slices.Clone(t.Tools)
		t.ConsentModelByRegion = maps.Clone(t.ConsentModelByRegion)
		c.Tracking = &t
	}
	if p.LegalBases != nil {
		lb := *p.LegalBases
		lb.LawfulBasesPerPurpose = maps.Clone(lb.LawfulBasesPerPurpose)
		c.LegalBases = &lb
	}
	if p.USStatePrivacy != nil {
		us := *p.USStatePrivacy
		us.SensitivePICategories = slices.Clone(us.SensitivePICategories)
		us.RetentionPerCategory = maps.Clone(us.RetentionPerCategory)
		us.RequestChannels = slices.Clone(us.RequestChannels)
		c.USStatePrivacy = &us
	}
	if p.InternationalTransfers != nil {
		it := *p.InternationalTransfers
		it.HostingRegions = slices.Clone(it.HostingRegions)
		it.TransferMechanisms = slices.Clone(it.TransferMechanisms)
		c.InternationalTransfers = &it
	}
	if p.Security != nil {
		sec := SecurityMeasures{HighLevelMeasures: slices.Clone(p.Security.HighLevelMeasures)}
		c.Security = &sec
	}
	if p.UserRights != nil {
		ur := *p.UserRights
		ur.ResponseWindowDays = cloneInt(ur.ResponseWindowDays)
		ur.SupervisorAppealsLinks = maps.Clone(ur.SupervisorAppealsLinks)
		if ur.RightsByRegion != nil {
			ur.RightsByRegion = make(map[string][]string, len(p.UserRights.RightsByRegion))
			for k, v := range p.UserRights.RightsByRegion {
				ur.RightsByRegion[k] = slices.Clone(v)
			}
		}
		c.UserRights = &ur
	}
	if p.Billing != nil {
		b := *p.Billing
		b.PriceChangeNoticeDays = cloneInt(b.PriceChangeNoticeDays)
		c.Billing = &b
	}
	if p.ExportControls != nil {
		ec := *p.ExportControls
		c.ExportControls = &ec
	}
	return &c
}

func (dc DataCategory) clone() DataCategory {
	dc.Purposes = slices.Clone(dc.Purposes)
	dc.SharedWith = slices.Clone(dc.SharedWith)
	return dc
}

func (v Vendor) clone() Vendor {
	v.DataCategories = slices.Clone(v.DataCategories)
	v.Regions = slices.Clone(v.Regions)
	return v
}

func cloneEach[T any](in []T, fn func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
