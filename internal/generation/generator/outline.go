package generator

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/requestcontext"
)

// minDescriptionLength is the shortest product description that does not
// draw an advisory gap.
const minDescriptionLength = 40

// ProfileReader loads the persisted profile a document is drafted from.
type ProfileReader interface {
	Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
}

// Outline renders the conditional section outline of a document from the
// persisted profile. It needs no network and backs the CLI and the fallback
// path when the drafting service is down.
type Outline struct {
	profiles ProfileReader
}

func NewOutline(profiles ProfileReader) *Outline {
	return &Outline{profiles: profiles}
}

var outlineTemplate = template.Must(template.New("outline").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"title": titleCase,
	"join":  strings.Join,
}).Parse(`# {{.Title}}

**{{.Product}}** is provided by {{.Company}}.
{{- if .EffectiveDate}}
Effective date: {{.EffectiveDate}}
{{- end}}
{{- if .Jurisdictions}}
Applies to users in: {{join .Jurisdictions ", "}}
{{- end}}
{{if .Description}}
> {{.Description}}
{{end}}
{{range $i, $s := .Sections}}
## {{inc $i}}. {{title $s}}
{{end}}`))

type outlineData struct {
	Title         string
	Product       string
	Company       string
	EffectiveDate string
	Jurisdictions []string
	Description   string
	Sections      []string
}

func (o *Outline) Generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error) {
	profile, err := o.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	doc := form.DocType()
	markdown, err := RenderOutline(profile, doc, description(form))
	if err != nil {
		return nil, err
	}
	return &models.GenerationResult{
		DocType:  doc,
		Markdown: markdown,
		Gaps:     AdvisoryGaps(profile, form),
	}, nil
}

// SaveForm builds the echo record; the orchestrator stores it.
func (o *Outline) SaveForm(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
	return models.NewFormRecord(profileID, form, requestcontext.Now(ctx))
}

// RenderOutline renders the section outline of doc for profile.
func RenderOutline(profile *models.Profile, doc models.DocType, desc string) (string, error) {
	names := make([]string, len(profile.Organization.JurisdictionsServed))
	for i, j := range profile.Organization.JurisdictionsServed {
		names[i] = j.DisplayName()
	}
	data := outlineData{
		Title:         doc.Title(),
		Product:       orDefault(profile.Product.ProductName, "The service"),
		Company:       orDefault(profile.Organization.CompanyLegalName, "the company"),
		EffectiveDate: profile.Organization.EffectiveDate,
		Jurisdictions: names,
		Description:   strings.TrimSpace(desc),
		Sections:      Sections(profile, doc),
	}
	var b strings.Builder
	if err := outlineTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s outline: %w", doc, err)
	}
	return b.String(), nil
}

// Sections returns the section headings of doc in document order. Optional
// sections appear only when the profile calls for them.
func Sections(p *models.Profile, doc models.DocType) []string {
	if doc == models.DocTypePrivacy {
		return privacySections(p)
	}
	return tosSections(p)
}

func tosSections(p *models.Profile) []string {
	s := []string{"acceptance", "eligibility", "accounts"}
	if p.AcceptableUse.UGCEnabled {
		s = append(s, "user content")
	}
	s = append(s, "intellectual property", "acceptable use")
	if p.Billing != nil {
		switch p.Billing.MonetizationModel {
		case "paid", "freemium", "usage-based":
			s = append(s, "subscriptions & billing")
		}
	}
	if len(p.Vendors) > 0 {
		s = append(s, "third-party services")
	}
	return append(s, "changes to terms", "liability", "governing law", "termination", "general provisions", "contact")
}

func privacySections(p *models.Profile) []string {
	euUK := p.Serves(models.JurisdictionEU, models.JurisdictionUK)
	s := []string{"scope", "data we collect", "how we use data", "sharing and disclosure"}
	if len(p.Vendors) > 0 {
		s = append(s, "third-party services")
	}
	if euUK || p.InternationalTransfers != nil {
		s = append(s, "international transfers")
	}
	s = append(s, "data retention", "security")
	if euUK || (p.USStatePrivacy != nil && len(p.USStatePrivacy.RequestChannels) > 0) {
		s = append(s, "your rights")
	}
	s = append(s, "children")
	if p.Tracking != nil {
		s = append(s, "cookies and tracking")
	}
	return append(s, "changes to policy", "contact")
}

// AdvisoryGaps returns the non-blocking findings raised after drafting.
func AdvisoryGaps(p *models.Profile, form models.DocumentForm) []models.Gap {
	gaps := []models.Gap{}
	switch f := form.(type) {
	case *models.ToSForm:
		if len(strings.TrimSpace(deref(f.ProductDescription))) < minDescriptionLength {
			gaps = append(gaps, models.Gap{
				Severity: models.SeverityWarn,
				Message:  "Product description could be more detailed",
				Field:    "product_description",
				DocType:  models.DocTypeToS,
			})
		}
	case *models.PrivacyForm:
		if !p.Serves(models.JurisdictionEU, models.JurisdictionUK, models.JurisdictionUS) {
			break
		}
		for i, dc := range p.DataCategories {
			if strings.TrimSpace(dc.Retention) != "" {
				continue
			}
			gaps = append(gaps, models.Gap{
				Severity: models.SeverityWarn,
				Message:  "Retention period not specified for data category: " + dc.Category,
				Field:    fmt.Sprintf("data_categories.[%d].retention", i),
				DocType:  models.DocTypePrivacy,
			})
		}
	}
	return gaps
}

func description(form models.DocumentForm) string {
	if f, ok := form.(*models.ToSForm); ok {
		return deref(f.ProductDescription)
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
