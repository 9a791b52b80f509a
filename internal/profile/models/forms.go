package models

import (
	"encoding/json"
	"time"

	id "lexdraft/pkg/domain"
)

// DocumentForm is a document-specific view of profile data plus fields only
// that document needs. Forms are transient; only an audit copy is kept.
//
// Scalars are pointers and collections are nil when omitted, so a form can
// say "leave this alone" separately from "set this to empty".
type DocumentForm interface {
	DocType() DocType
}

// OrganizationPatch carries organization edits made while filling a form,
// most often a change to the served jurisdictions.
type OrganizationPatch struct {
	CompanyLegalName    *string  `json:"company_legal_name,omitempty"`
	RegisteredAddress   *string  `json:"registered_address,omitempty"`
	PrivacyEmail        *string  `json:"privacy_email,omitempty"`
	LegalNoticesEmail   *string  `json:"legal_notices_email,omitempty"`
	JurisdictionsServed []string `json:"jurisdictions_served,omitempty"`
	Languages           []string `json:"languages,omitempty"`
	EffectiveDate       *string  `json:"effective_date,omitempty"`
	VersionLabel        *string  `json:"version_label,omitempty"`
	PrivacyPolicyURL    *string  `json:"privacy_policy_url,omitempty"`
	TermsURL            *string  `json:"terms_url,omitempty"`
}

// ToSForm feeds Terms of Service generation.
type ToSForm struct {
	Organization *OrganizationPatch `json:"organization,omitempty"`

	ProductName        *string  `json:"product_name,omitempty"`
	ProductDescription *string  `json:"product_description,omitempty"`
	ServiceType        *string  `json:"service_type,omitempty"`
	Platforms          []string `json:"platforms,omitempty"`
	HasBetaFeatures    *bool    `json:"has_beta_features,omitempty"`
	BetaNote           *string  `json:"beta_note,omitempty"`

	MinimumAge                      *int    `json:"minimum_age,omitempty"`
	AllowUnder13WithParentalConsent *bool   `json:"allow_under_13_with_parental_consent,omitempty"`
	ParentalConsentFlowDescription  *string `json:"parental_consent_flow_description,omitempty"`
	AllowOrganizationalUse          *bool   `json:"allow_organizational_use,omitempty"`

	// DataCategories is a plain list of category names.
	DataCategories []string `json:"data_categories,omitempty"`

	ProhibitedActs      []string `json:"prohibited_acts,omitempty"`
	UGCEnabled          *bool    `json:"ugc_enabled,omitempty"`
	UGCLicenseToService *string  `json:"ugc_license_to_service,omitempty"`
	ModerationAppeals   *string  `json:"moderation_appeals,omitempty"`
	DMCAContact         *string  `json:"dmca_contact,omitempty"`

	ServiceIPRetainedByCompany *bool   `json:"service_ip_retained_by_company,omitempty"`
	UserContentLicense         *string `json:"user_content_license,omitempty"`

	ChangeNoticeMethods []string `json:"change_notice_methods,omitempty"`
	LeadTimeDays        *int     `json:"lead_time_days,omitempty"`

	AsIsDisclaimer               *bool    `json:"as_is_disclaimer,omitempty"`
	LiabilityCapDescription      *string  `json:"liability_cap_description,omitempty"`
	ExcludeIndirectConsequential *bool    `json:"exclude_indirect_consequential,omitempty"`
	CarveOuts                    []string `json:"carve_outs,omitempty"`
	UserIndemnityEnabled         *bool    `json:"user_indemnity_enabled,omitempty"`

	DisputePath            *string `json:"dispute_path,omitempty"`
	Venue                  *string `json:"venue,omitempty"`
	HasClassActionWaiver   *bool   `json:"has_class_action_waiver,omitempty"`
	HasSmallClaimsCarveout *bool   `json:"has_small_claims_carveout,omitempty"`
}

func (*ToSForm) DocType() DocType { return DocTypeToS }

// DataInventoryItem is the structured form of a data category.
type DataInventoryItem struct {
	Category   string   `json:"category"`
	Sources    []string `json:"sources,omitempty"`
	Purposes   []string `json:"purposes,omitempty"`
	SharedWith []string `json:"shared_with,omitempty"`
	Retention  *string  `json:"retention,omitempty"`
}

type VendorEntry struct {
	Name           string   `json:"name"`
	Role           string   `json:"role,omitempty"`
	DataCategories []string `json:"data_categories,omitempty"`
	Region         string   `json:"region,omitempty"`
	PolicyURL      string   `json:"policy_url,omitempty"`
}

type TrackingInfo struct {
	Tech         []string          `json:"tech,omitempty"`
	Tools        []string          `json:"tools,omitempty"`
	ConsentModel map[string]string `json:"consent_model,omitempty"`
}

type ChangeNotice struct {
	Methods      []string `json:"methods,omitempty"`
	LeadTimeDays *int     `json:"lead_time_days,omitempty"`
}

type GDPRInfo struct {
	Role                    *string           `json:"role,omitempty"`
	LegalBases              map[string]string `json:"legal_bases,omitempty"`
	LegitimateInterestsText *string           `json:"legitimate_interests_text,omitempty"`
}

type USStatePrivacyInfo struct {
	SellOrShare     *bool    `json:"sell_or_share,omitempty"`
	SensitivePI     []string `json:"sensitive_pi,omitempty"`
	RequestChannels []string `json:"request_channels,omitempty"`
}

type TransfersInfo struct {
	Mechanisms     []string `json:"mechanisms,omitempty"`
	HostingRegions []string `json:"hosting_regions,omitempty"`
}

// PrivacyForm feeds Privacy Policy generation.
type PrivacyForm struct {
	Organization *OrganizationPatch `json:"organization,omitempty"`

	ProductName            *string             `json:"product_name,omitempty"`
	MinAge                 *int                `json:"min_age,omitempty"`
	DataInventory          []DataInventoryItem `json:"data_inventory,omitempty"`
	Platforms              []string            `json:"platforms,omitempty"`
	Vendors                []VendorEntry       `json:"vendors,omitempty"`
	Tracking               *TrackingInfo       `json:"tracking,omitempty"`
	Security               []string            `json:"security,omitempty"`
	ChangeNotice           *ChangeNotice       `json:"change_notice,omitempty"`
	GDPR                   *GDPRInfo           `json:"gdpr,omitempty"`
	USStatePrivacy         *USStatePrivacyInfo `json:"us_state_privacy,omitempty"`
	Transfers              *TransfersInfo      `json:"transfers,omitempty"`
	Under13ParentalConsent *bool               `json:"under13_parental_consent,omitempty"`
	ParentContactMethod    *string             `json:"parent_contact_method,omitempty"`
}

func (*PrivacyForm) DocType() DocType { return DocTypePrivacy }

// UnifiedForm is what the operator fills once. ToS and Privacy project it
// onto the per-document forms; privacy-only fields sit alongside the ToS ones.
type UnifiedForm struct {
	ToSForm

	DataInventory          []DataInventoryItem `json:"data_inventory,omitempty"`
	Vendors                []VendorEntry       `json:"vendors,omitempty"`
	Tracking               *TrackingInfo       `json:"tracking,omitempty"`
	Security               []string            `json:"security,omitempty"`
	ChangeNotice           *ChangeNotice       `json:"change_notice,omitempty"`
	GDPR                   *GDPRInfo           `json:"gdpr,omitempty"`
	USStatePrivacy         *USStatePrivacyInfo `json:"us_state_privacy,omitempty"`
	Transfers              *TransfersInfo      `json:"transfers,omitempty"`
	Under13ParentalConsent *bool               `json:"under13_parental_consent,omitempty"`
	ParentContactMethod    *string             `json:"parent_contact_method,omitempty"`
}

// ToS returns the Terms of Service projection. Slices are shared with u.
func (u *UnifiedForm) ToS() *ToSForm {
	if u == nil {
		return &ToSForm{}
	}
	f := u.ToSForm
	return &f
}

// Privacy returns the Privacy Policy projection. The change notice falls back
// to the ToS notice methods when the privacy-specific block is omitted.
func (u *UnifiedForm) Privacy() *PrivacyForm {
	if u == nil {
		return &PrivacyForm{}
	}
	notice := u.ChangeNotice
	if notice == nil && (u.ChangeNoticeMethods != nil || u.LeadTimeDays != nil) {
		notice = &ChangeNotice{Methods: u.ChangeNoticeMethods, LeadTimeDays: u.LeadTimeDays}
	}
	return &PrivacyForm{
		Organization:           u.Organization,
		ProductName:            u.ProductName,
		MinAge:                 u.MinimumAge,
		DataInventory:          u.DataInventory,
		Platforms:              u.Platforms,
		Vendors:                u.Vendors,
		Tracking:               u.Tracking,
		Security:               u.Security,
		ChangeNotice:           notice,
		GDPR:                   u.GDPR,
		USStatePrivacy:         u.USStatePrivacy,
		Transfers:              u.Transfers,
		Under13ParentalConsent: u.Under13ParentalConsent,
		ParentContactMethod:    u.ParentContactMethod,
	}
}

// For returns the projection for a document type.
func (u *UnifiedForm) For(doc DocType) DocumentForm {
	if doc == DocTypePrivacy {
		return u.Privacy()
	}
	return u.ToS()
}

// FormRecord is the audit copy of a submitted form.
type FormRecord struct {
	ProfileID id.ProfileID    `json:"profile_id"`
	DocType   DocType         `json:"doc_type"`
	Form      json.RawMessage `json:"form"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewFormRecord encodes form into an audit record.
func NewFormRecord(profileID id.ProfileID, form DocumentForm, createdAt time.Time) (*FormRecord, error) {
	raw, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	return &FormRecord{
		ProfileID: profileID,
		DocType:   form.DocType(),
		Form:      raw,
		CreatedAt: createdAt,
	}, nil
}

// GenerationResult is what a generator returns for one document.
type GenerationResult struct {
	DocType  DocType `json:"doc_type"`
	Markdown string  `json:"markdown"`
	Gaps     []Gap   `json:"gaps"`
}
