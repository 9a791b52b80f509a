package reconcile

import (
	"errors"
	"fmt"

	dErrors "lexdraft/pkg/domain-errors"
)

// Error reports a form value that cannot be mapped onto the profile.
type Error struct {
	Section string
	Field   string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Path(), e.Reason)
}

// Path is the dotted location of the offending form value.
func (e *Error) Path() string {
	if e.Field == "" {
		return e.Section
	}
	return e.Section + "." + e.Field
}

func fieldError(section, field, format string, args ...any) *Error {
	return &Error{Section: section, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// wrap folds reducer failures into one validation error. Nil when errs is empty.
func wrap(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return dErrors.Wrap(errors.Join(errs...), dErrors.CodeValidation, "form cannot be reconciled with profile")
}

// Errors extracts every *Error carried by err, in the order they were raised.
func Errors(err error) []*Error {
	var out []*Error
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if re, ok := e.(*Error); ok {
			out = append(out, re)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
