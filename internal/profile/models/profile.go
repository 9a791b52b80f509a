package models

import (
	"time"

	id "lexdraft/pkg/domain"
)

// DataSource records where a data category is collected from.
type DataSource string

const (
	DataSourceUser       DataSource = "user"
	DataSourceAutomated  DataSource = "automated"
	DataSourceThirdParty DataSource = "third-party"
)

// DisputePath selects how disputes under the terms are resolved.
type DisputePath string

const (
	DisputePathCourts      DisputePath = "courts"
	DisputePathArbitration DisputePath = "arbitration"
	DisputePathMediation   DisputePath = "mediation"
)

// Profile is the canonical description of a company and product that every
// document is drafted from. ID is assigned by the repository on first save.
type Profile struct {
	ID                   id.ProfileID         `json:"profile_id"`
	Name                 string               `json:"profile_name" validate:"required"`
	Organization         Organization         `json:"organization"`
	Product              Product              `json:"product"`
	Audience             Audience             `json:"audience"`
	DataCategories       []DataCategory       `json:"data_categories" validate:"dive"`
	AcceptableUse        AcceptableUse        `json:"acceptable_use"`
	IntellectualProperty IntellectualProperty `json:"intellectual_property"`
	ChangesPolicy        ChangesPolicy        `json:"changes_policy"`
	Disclaimers          Disclaimers          `json:"disclaimers"`
	DisputeResolution    DisputeResolution    `json:"dispute_resolution"`

	Vendors                []Vendor                `json:"vendors,omitempty" validate:"dive"`
	Tracking               *Tracking               `json:"tracking,omitempty"`
	LegalBases             *LegalBases             `json:"legal_bases,omitempty"`
	USStatePrivacy         *USStatePrivacy         `json:"us_state_privacy,omitempty"`
	InternationalTransfers *InternationalTransfers `json:"international_transfers,omitempty"`
	Security               *SecurityMeasures       `json:"security,omitempty"`
	UserRights             *UserRights             `json:"user_rights,omitempty"`
	Billing                *Billing                `json:"billing,omitempty"`
	ExportControls         *ExportControls         `json:"export_controls,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type Organization struct {
	CompanyLegalName    string         `json:"company_legal_name"`
	RegisteredAddress   string         `json:"registered_address"`
	PrivacyEmail        string         `json:"privacy_email" validate:"omitempty,email"`
	LegalNoticesEmail   string         `json:"legal_notices_email" validate:"omitempty,email"`
	JurisdictionsServed []Jurisdiction `json:"jurisdictions_served" validate:"required,min=1,dive,oneof=US EU UK CA AU IL Other"`
	Languages           []string       `json:"languages,omitempty"`
	EffectiveDate       string         `json:"effective_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	VersionLabel        string         `json:"version_label,omitempty"`
	PrivacyPolicyURL    string         `json:"privacy_policy_url,omitempty" validate:"omitempty,url"`
	TermsURL            string         `json:"terms_url,omitempty" validate:"omitempty,url"`
}

type Product struct {
	ProductName     string   `json:"product_name"`
	Platforms       []string `json:"platforms,omitempty"`
	ServiceType     string   `json:"service_type,omitempty"`
	HasBetaFeatures bool     `json:"has_beta_features"`
	BetaNote        string   `json:"beta_note,omitempty"`
}

type Audience struct {
	MinimumAge                      int    `json:"minimum_age" validate:"oneof=13 16 18"`
	EEAUKOverride16                 bool   `json:"eea_uk_override_16"`
	AllowUnder13WithParentalConsent bool   `json:"allow_under_13_with_parental_consent"`
	ParentalConsentFlowDescription  string `json:"parental_consent_flow_description,omitempty"`
	AllowOrganizationalUse          bool   `json:"allow_organizational_use"`
}

// DataCategory describes one class of personal data the product processes.
// Purposes and SharedWith behave as ordered sets.
type DataCategory struct {
	Category   string     `json:"category" validate:"required"`
	Source     DataSource `json:"source" validate:"oneof=user automated third-party"`
	Purposes   []string   `json:"purposes"`
	Retention  string     `json:"retention,omitempty"`
	SharedWith []string   `json:"shared_with"`
}

type Vendor struct {
	Name           string   `json:"name" validate:"required"`
	Role           string   `json:"role,omitempty" validate:"omitempty,oneof=processor controller service_provider"`
	DataCategories []string `json:"data_categories,omitempty"`
	Regions        []string `json:"regions,omitempty"`
	PolicyURL      string   `json:"policy_url,omitempty" validate:"omitempty,url"`
	Use            string   `json:"use,omitempty"`
}

type Tracking struct {
	Technologies         []string          `json:"technologies,omitempty"`
	Tools                []string          `json:"tools,omitempty"`
	ConsentModelByRegion map[string]string `json:"consent_model_by_region,omitempty"`
	CookiePolicyURL      string            `json:"cookie_policy_url,omitempty" validate:"omitempty,url"`
}

type LegalBases struct {
	ControllerOrProcessor      string            `json:"controller_or_processor,omitempty" validate:"omitempty,oneof=controller processor"`
	LawfulBasesPerPurpose      map[string]string `json:"lawful_bases_per_purpose,omitempty"`
	LegitimateInterestsText    string            `json:"legitimate_interests_text,omitempty"`
	DPOContact                 string            `json:"dpo_contact,omitempty" validate:"omitempty,email"`
	HasAutomatedDecisionMaking bool              `json:"has_automated_decision_making"`
	ProfilingDisclosure        string            `json:"profiling_disclosure,omitempty"`
}

type USStatePrivacy struct {
	SellsOrSharesForAds    bool              `json:"sells_or_shares_for_ads"`
	CollectsSensitivePI    bool              `json:"collects_sensitive_pi"`
	SensitivePICategories  []string          `json:"sensitive_pi_categories,omitempty"`
	RetentionPerCategory   map[string]string `json:"retention_per_category,omitempty"`
	RequestChannels        []string          `json:"request_channels,omitempty"`
	HasFinancialIncentives bool              `json:"has_financial_incentives"`
	IncentivesDescription  string            `json:"incentives_description,omitempty"`
}

type InternationalTransfers struct {
	HostingRegions        []string `json:"hosting_regions,omitempty"`
	TransferMechanisms    []string `json:"transfer_mechanisms,omitempty"`
	SupplementaryMeasures string   `json:"supplementary_measures,omitempty"`
}

type SecurityMeasures struct {
	HighLevelMeasures []string `json:"high_level_measures,omitempty"`
}

type UserRights struct {
	RightsByRegion         map[string][]string `json:"rights_by_region,omitempty"`
	VerificationMethod     string              `json:"verification_method,omitempty"`
	ResponseWindowDays     *int                `json:"response_window_days,omitempty"`
	SupervisorAppealsLinks map[string]string   `json:"supervisor_appeals_links,omitempty"`
}

type AcceptableUse struct {
	ProhibitedActs      []string `json:"prohibited_acts"`
	UGCEnabled          bool     `json:"ugc_enabled"`
	UGCLicenseToService string   `json:"ugc_license_to_service,omitempty"`
	ModerationAppeals   string   `json:"moderation_appeals,omitempty"`
	DMCAContact         string   `json:"dmca_contact,omitempty" validate:"omitempty,email"`
}

type IntellectualProperty struct {
	ServiceIPRetainedByCompany bool   `json:"service_ip_retained_by_company"`
	EndUserLicenseText         string `json:"end_user_license_text,omitempty"`
	FeedbackLicense            string `json:"feedback_license,omitempty"`
	OpenSourceNoticesURL       string `json:"open_source_notices_url,omitempty" validate:"omitempty,url"`
}

type Billing struct {
	MonetizationModel        string `json:"monetization_model,omitempty" validate:"omitempty,oneof=free freemium paid usage-based"`
	BillingPeriod            string `json:"billing_period,omitempty"`
	HasFreeTrial             bool   `json:"has_free_trial"`
	TrialConversionRule      string `json:"trial_conversion_rule,omitempty"`
	AutoRenewalEnabled       bool   `json:"auto_renewal_enabled"`
	CancellationInstructions string `json:"cancellation_instructions,omitempty"`
	RefundPolicy             string `json:"refund_policy,omitempty"`
	TaxesIncluded            bool   `json:"taxes_included"`
	PriceChangeNoticeDays    *int   `json:"price_change_notice_days,omitempty"`
}

type ChangesPolicy struct {
	ChangeNoticeMethod []string `json:"change_notice_method"`
	LeadTimeDays       *int     `json:"lead_time_days,omitempty"`
}

type Disclaimers struct {
	AsIsDisclaimer               bool     `json:"as_is_disclaimer"`
	LiabilityCapDescription      string   `json:"liability_cap_description"`
	ExcludeIndirectConsequential bool     `json:"exclude_indirect_consequential"`
	CarveOuts                    []string `json:"carve_outs"`
	UserIndemnityEnabled         bool     `json:"user_indemnity_enabled"`
}

type DisputeResolution struct {
	DisputePath            DisputePath `json:"dispute_path" validate:"omitempty,oneof=courts arbitration mediation"`
	Venue                  string      `json:"venue"`
	HasClassActionWaiver   bool        `json:"has_class_action_waiver"`
	HasSmallClaimsCarveout bool        `json:"has_small_claims_carveout"`
}

type ExportControls struct {
	ExportComplianceStatement string `json:"export_compliance_statement,omitempty"`
}

// ProfileSummary is the listing projection of a profile.
type ProfileSummary struct {
	ID               id.ProfileID `json:"profile_id"`
	Name             string       `json:"profile_name"`
	CompanyLegalName string       `json:"company_legal_name"`
}

// Summary projects the profile into its listing row.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:               p.ID,
		Name:             p.Name,
		CompanyLegalName: p.Organization.CompanyLegalName,
	}
}

// Serves reports whether the profile lists any of the given jurisdictions.
func (p *Profile) Serves(targets ...Jurisdiction) bool {
	return ContainsAny(p.Organization.JurisdictionsServed, targets...)
}

// FindDataCategory returns the index of the named category, or -1.
func (p *Profile) FindDataCategory(name string) int {
	for i, dc := range p.DataCategories {
		if dc.Category == name {
			return i
		}
	}
	return -1
}
