package models

// Defaults applied to new profiles before the operator fills anything in.
const (
	DefaultMinimumAge        = 13
	DefaultLiabilityCap      = "fees paid in last 12 months"
	DefaultMonetizationModel = "free"
)

// DefaultCarveOuts are the liability carve-outs most jurisdictions will not let a company exclude.
var DefaultCarveOuts = []string{"fraud", "willful misconduct", "non-excludable statutory rights"}

// NewDefaultProfile returns an unsaved profile with the standard defaults.
// Jurisdictions are left empty, so it does not pass Validate until the
// operator picks at least one.
func NewDefaultProfile(name string) *Profile {
	return &Profile{
		Name: name,
		Audience: Audience{
			MinimumAge:             DefaultMinimumAge,
			AllowOrganizationalUse: true,
		},
		IntellectualProperty: IntellectualProperty{ServiceIPRetainedByCompany: true},
		ChangesPolicy:        ChangesPolicy{ChangeNoticeMethod: []string{"email"}},
		Disclaimers: Disclaimers{
			AsIsDisclaimer:               true,
			LiabilityCapDescription:      DefaultLiabilityCap,
			ExcludeIndirectConsequential: true,
			CarveOuts:                    append([]string(nil), DefaultCarveOuts...),
			UserIndemnityEnabled:         true,
		},
		DisputeResolution: DisputeResolution{DisputePath: DisputePathCourts},
		Billing:           &Billing{MonetizationModel: DefaultMonetizationModel},
	}
}
