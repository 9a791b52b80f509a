package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "lexdraft/pkg/domain-errors"
)

var profileValidate = newProfileValidator()

func newProfileValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Violation is one structural invariant failure on a profile.
type Violation struct {
	Field string
	Tag   string
	Param string
}

func (v Violation) Message() string {
	switch v.Tag {
	case "required", "min":
		return v.Field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", v.Field, v.Param)
	case "email":
		return v.Field + " must be a valid email address"
	case "url":
		return v.Field + " must be a valid URL"
	case "datetime":
		return v.Field + " must be a date formatted as " + v.Param
	}
	return v.Field + " is invalid"
}

// Violations returns every structural invariant the profile breaks, in field order.
func (p *Profile) Violations() []Violation {
	err := profileValidate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Field: "profile", Tag: "invalid"}}
	}
	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Violation{
			Field: trimRootNamespace(fe.Namespace()),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// Validate checks structural invariants: a name, at least one known
// jurisdiction, a supported minimum age and well-formed contact fields.
// Completeness for a particular document is the compliance validator's job.
func (p *Profile) Validate() error {
	violations := p.Violations()
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message()
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

// trimRootNamespace turns "Profile.organization.jurisdictions_served[0]"
// into "organization.jurisdictions_served[0]".
func trimRootNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
