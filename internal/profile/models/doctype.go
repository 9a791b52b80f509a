package models

import (
	"slices"
	"strings"

	dErrors "lexdraft/pkg/domain-errors"
)

// DocType is a legal document the engine can draft.
type DocType string

const (
	DocTypeToS     DocType = "tos"
	DocTypePrivacy DocType = "privacy"
)

// DocTypes is the canonical processing order. Lower ordinal goes first.
var DocTypes = []DocType{DocTypeToS, DocTypePrivacy}

// ParseDocType accepts "tos" or "privacy" case-insensitively.
func ParseDocType(s string) (DocType, error) {
	switch DocType(strings.ToLower(strings.TrimSpace(s))) {
	case DocTypeToS:
		return DocTypeToS, nil
	case DocTypePrivacy:
		return DocTypePrivacy, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown document type: "+s)
}

// ParseDocTypes parses a list of doc type codes and normalizes it.
func ParseDocTypes(values []string) ([]DocType, error) {
	docs := make([]DocType, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		d, err := ParseDocType(v)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return NormalizeDocTypes(docs), nil
}

// Ordinal is the position in the canonical order, or -1 for unknown values.
func (d DocType) Ordinal() int {
	return slices.Index(DocTypes, d)
}

func (d DocType) IsValid() bool {
	return d.Ordinal() >= 0
}

// Title is the document's display name.
func (d DocType) Title() string {
	switch d {
	case DocTypeToS:
		return "Terms of Service"
	case DocTypePrivacy:
		return "Privacy Policy"
	}
	return string(d)
}

func (d DocType) String() string {
	return string(d)
}

// NormalizeDocTypes drops unknown and duplicate entries and sorts the rest
// into canonical order.
func NormalizeDocTypes(docs []DocType) []DocType {
	out := make([]DocType, 0, len(DocTypes))
	for _, d := range DocTypes {
		if slices.Contains(docs, d) {
			out = append(out, d)
		}
	}
	return out
}
