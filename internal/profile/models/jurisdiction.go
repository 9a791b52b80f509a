package models

import (
	"strings"

	dErrors "lexdraft/pkg/domain-errors"
)

// Jurisdiction is a market the company serves. Codes are a closed set.
type Jurisdiction string

const (
	JurisdictionUS    Jurisdiction = "US"
	JurisdictionEU    Jurisdiction = "EU"
	JurisdictionUK    Jurisdiction = "UK"
	JurisdictionCA    Jurisdiction = "CA"
	JurisdictionAU    Jurisdiction = "AU"
	JurisdictionIL    Jurisdiction = "IL"
	JurisdictionOther Jurisdiction = "Other"
)

// AllJurisdictions lists the codes in display order.
var AllJurisdictions = []Jurisdiction{
	JurisdictionUS, JurisdictionEU, JurisdictionUK, JurisdictionCA,
	JurisdictionAU, JurisdictionIL, JurisdictionOther,
}

var jurisdictionNames = map[Jurisdiction]string{
	JurisdictionUS:    "United States",
	JurisdictionEU:    "European Union",
	JurisdictionUK:    "United Kingdom",
	JurisdictionCA:    "Canada",
	JurisdictionAU:    "Australia",
	JurisdictionIL:    "Israel",
	JurisdictionOther: "Other",
}

// ParseJurisdiction accepts a code case-insensitively and returns its canonical form.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	s = strings.TrimSpace(s)
	for _, j := range AllJurisdictions {
		if strings.EqualFold(string(j), s) {
			return j, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown jurisdiction: "+s)
}

// ParseJurisdictions parses and dedupes a list of codes, keeping first-seen order.
func ParseJurisdictions(values []string) ([]Jurisdiction, error) {
	if values == nil {
		return nil, nil
	}
	out := make([]Jurisdiction, 0, len(values))
	seen := make(map[Jurisdiction]struct{}, len(values))
	for _, v := range values {
		j, err := ParseJurisdiction(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[j]; ok {
			continue
		}
		seen[j] = struct{}{}
		out = append(out, j)
	}
	return out, nil
}

func (j Jurisdiction) IsValid() bool {
	_, ok := jurisdictionNames[j]
	return ok
}

// DisplayName returns the human label, or the raw code when unknown.
func (j Jurisdiction) DisplayName() string {
	if name, ok := jurisdictionNames[j]; ok {
		return name
	}
	return string(j)
}

func (j Jurisdiction) String() string {
	return string(j)
}

// ContainsAny reports whether set shares at least one code with targets.
func ContainsAny(set []Jurisdiction, targets ...Jurisdiction) bool {
	for _, j := range set {
		for _, t := range targets {
			if j == t {
				return true
			}
		}
	}
	return false
}
