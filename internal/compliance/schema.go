// Package compliance decides which profile and form fields a document needs
// and checks a profile against those requirements.
//
// The schema registry lists every field with its base requirement. The rule
// set adds requirements triggered by jurisdictions and feature flags. The
// validator combines both against a reconciled snapshot.
package compliance

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"lexdraft/internal/profile/models"
)

// FieldType is the semantic type of a field, used by clients to pick an input.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeList    FieldType = "list"
	TypeBool    FieldType = "bool"
	TypeEnum    FieldType = "enum"
	TypeMap     FieldType = "map"
	TypeRecords FieldType = "records"
)

// Requirement is a field's base mandatoriness class.
type Requirement string

const (
	Mandatory   Requirement = "mandatory"
	Conditional Requirement = "conditionally-mandatory"
	Optional    Requirement = "optional"
)

// View is the merged profile plus the form it was reconciled from. Form-only
// fields such as the product description resolve on Form.
type View struct {
	Profile *models.Profile
	Form    *models.UnifiedForm
}

// FieldSpec describes one field. Value resolves it on a View.
type FieldSpec struct {
	Path        string      `json:"path"`
	Label       string      `json:"label"`
	Type        FieldType   `json:"type"`
	Requirement Requirement `json:"requirement"`

	docs  []models.DocType
	value func(View) any
}

// Value returns the field's current value, or nil when the owning section is absent.
func (f FieldSpec) Value(v View) any {
	if f.value == nil || v.Profile == nil {
		return nil
	}
	return f.value(v)
}

// IsEmpty reports whether the field counts as missing: absent, blank string
// or empty collection. Booleans are never missing.
func (f FieldSpec) IsEmpty(v View) bool {
	return isEmpty(f.Value(v))
}

func (f FieldSpec) appliesTo(doc models.DocType) bool {
	return slices.Contains(f.docs, doc)
}

var (
	bothDocs    = []models.DocType{models.DocTypeToS, models.DocTypePrivacy}
	tosOnly     = []models.DocType{models.DocTypeToS}
	privacyOnly = []models.DocType{models.DocTypePrivacy}
)

// registry is declaration-ordered; FieldsFor preserves this order.
var registry = []FieldSpec{
	{Path: "organization.company_legal_name", Label: "Company legal name", Type: TypeText, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Organization.CompanyLegalName }},
	{Path: "organization.registered_address", Label: "Registered address", Type: TypeText, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Organization.RegisteredAddress }},
	{Path: "organization.jurisdictions_served", Label: "Jurisdictions served", Type: TypeList, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Organization.JurisdictionsServed }},
	{Path: "organization.legal_notices_email", Label: "Legal notices email", Type: TypeText, Requirement: Mandatory, docs: tosOnly,
		value: func(v View) any { return v.Profile.Organization.LegalNoticesEmail }},
	{Path: "organization.privacy_email", Label: "Privacy contact email", Type: TypeText, Requirement: Mandatory, docs: privacyOnly,
		value: func(v View) any { return v.Profile.Organization.PrivacyEmail }},

	{Path: "product.product_name", Label: "Product name", Type: TypeText, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Product.ProductName }},
	{Path: "product_description", Label: "Product description", Type: TypeText, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any {
			if v.Form == nil {
				return nil
			}
			return v.Form.ProductDescription
		}},
	{Path: "product.service_type", Label: "Service type", Type: TypeText, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Product.ServiceType }},
	{Path: "product.platforms", Label: "Platforms", Type: TypeList, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Product.Platforms }},
	{Path: "product.beta_note", Label: "Beta features note", Type: TypeText, Requirement: Conditional, docs: tosOnly,
		value: func(v View) any { return v.Profile.Product.BetaNote }},

	{Path: "audience.minimum_age", Label: "Minimum age", Type: TypeEnum, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.Audience.MinimumAge }},
	{Path: "audience.eea_uk_override_16", Label: "Apply 16+ age for EEA/UK users", Type: TypeBool, Requirement: Conditional, docs: bothDocs,
		value: func(v View) any { return v.Profile.Audience.EEAUKOverride16 }},
	{Path: "audience.parental_consent_flow_description", Label: "Parental consent flow description", Type: TypeText, Requirement: Conditional, docs: bothDocs,
		value: func(v View) any { return v.Profile.Audience.ParentalConsentFlowDescription }},

	{Path: "data_categories", Label: "Data categories", Type: TypeRecords, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.DataCategories }},

	{Path: "acceptable_use.prohibited_acts", Label: "Prohibited acts", Type: TypeList, Requirement: Mandatory, docs: tosOnly,
		value: func(v View) any { return v.Profile.AcceptableUse.ProhibitedActs }},
	{Path: "acceptable_use.ugc_license_to_service", Label: "User content license to the service", Type: TypeText, Requirement: Conditional, docs: tosOnly,
		value: func(v View) any { return v.Profile.AcceptableUse.UGCLicenseToService }},

	{Path: "changes_policy.change_notice_method", Label: "Change notice methods", Type: TypeList, Requirement: Mandatory, docs: bothDocs,
		value: func(v View) any { return v.Profile.ChangesPolicy.ChangeNoticeMethod }},

	{Path: "disclaimers.liability_cap_description", Label: "Liability cap description", Type: TypeText, Requirement: Mandatory, docs: tosOnly,
		value: func(v View) any { return v.Profile.Disclaimers.LiabilityCapDescription }},

	{Path: "dispute_resolution.venue", Label: "Dispute resolution venue", Type: TypeText, Requirement: Mandatory, docs: tosOnly,
		value: func(v View) any { return v.Profile.DisputeResolution.Venue }},
	{Path: "dispute_resolution.has_class_action_waiver", Label: "Class action waiver", Type: TypeBool, Requirement: Conditional, docs: tosOnly,
		value: func(v View) any { return v.Profile.DisputeResolution.HasClassActionWaiver }},
	{Path: "dispute_resolution.has_small_claims_carveout", Label: "Small claims carve-out", Type: TypeBool, Requirement: Conditional, docs: tosOnly,
		value: func(v View) any { return v.Profile.DisputeResolution.HasSmallClaimsCarveout }},

	{Path: "billing.cancellation_instructions", Label: "Cancellation instructions", Type: TypeText, Requirement: Conditional, docs: tosOnly,
		value: func(v View) any {
			if b := v.Profile.Billing; b != nil {
				return b.CancellationInstructions
			}
			return nil
		}},

	{Path: "legal_bases.controller_or_processor", Label: "GDPR role (controller or processor)", Type: TypeEnum, Requirement: Conditional, docs: bothDocs,
		value: func(v View) any {
			if lb := v.Profile.LegalBases; lb != nil {
				return lb.ControllerOrProcessor
			}
			return nil
		}},
	{Path: "legal_bases.lawful_bases_per_purpose", Label: "Legal bases per purpose", Type: TypeMap, Requirement: Conditional, docs: bothDocs,
		value: func(v View) any {
			if lb := v.Profile.LegalBases; lb != nil {
				return lb.LawfulBasesPerPurpose
			}
			return nil
		}},
	{Path: "legal_bases.profiling_disclosure", Label: "Automated decision-making disclosure", Type: TypeText, Requirement: Conditional, docs: privacyOnly,
		value: func(v View) any {
			if lb := v.Profile.LegalBases; lb != nil {
				return lb.ProfilingDisclosure
			}
			return nil
		}},

	{Path: "us_state_privacy.request_channels", Label: "Privacy request channels", Type: TypeList, Requirement: Conditional, docs: bothDocs,
		value: func(v View) any {
			if us := v.Profile.USStatePrivacy; us != nil {
				return us.RequestChannels
			}
			return nil
		}},
	{Path: "us_state_privacy.incentives_description", Label: "Financial incentives description", Type: TypeText, Requirement: Conditional, docs: privacyOnly,
		value: func(v View) any {
			if us := v.Profile.USStatePrivacy; us != nil {
				return us.IncentivesDescription
			}
			return nil
		}},

	{Path: "vendors", Label: "Vendors", Type: TypeRecords, Requirement: Optional, docs: privacyOnly,
		value: func(v View) any { return v.Profile.Vendors }},
	{Path: "tracking.technologies", Label: "Tracking technologies", Type: TypeList, Requirement: Optional, docs: privacyOnly,
		value: func(v View) any {
			if t := v.Profile.Tracking; t != nil {
				return t.Technologies
			}
			return nil
		}},
	{Path: "security.high_level_measures", Label: "Security measures", Type: TypeList, Requirement: Optional, docs: privacyOnly,
		value: func(v View) any {
			if sec := v.Profile.Security; sec != nil {
				return sec.HighLevelMeasures
			}
			return nil
		}},
	{Path: "international_transfers.transfer_mechanisms", Label: "Transfer mechanisms", Type: TypeList, Requirement: Optional, docs: privacyOnly,
		value: func(v View) any {
			if it := v.Profile.InternationalTransfers; it != nil {
				return it.TransferMechanisms
			}
			return nil
		}},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, f := range registry {
		if _, dup := idx[f.Path]; dup {
			panic("compliance: duplicate field path " + f.Path)
		}
		idx[f.Path] = i
	}
	return idx
}()

// FieldsFor lists the fields relevant to a document in registry order.
// An unknown document type is a programming error and panics.
func FieldsFor(doc models.DocType) []FieldSpec {
	if !doc.IsValid() {
		panic(fmt.Sprintf("compliance: unknown document type %q", doc))
	}
	var out []FieldSpec
	for _, f := range registry {
		if f.appliesTo(doc) {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the field registered at path.
func Lookup(path string) (FieldSpec, bool) {
	i, ok := registryIndex[path]
	if !ok {
		return FieldSpec{}, false
	}
	return registry[i], true
}

func mustLookup(path string) FieldSpec {
	f, ok := Lookup(path)
	if !ok {
		panic("compliance: rule references unregistered field " + path)
	}
	return f
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmpty(rv.Elem().Interface())
	case reflect.Int, reflect.Int64, reflect.Int32:
		return rv.Int() == 0
	}
	return false
}
