package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "lexdraft/pkg/domain-errors"
)

// ProfileID identifies a company profile. It is assigned by the repository on
// first save and never changes afterwards.
type ProfileID uuid.UUID

// NewProfileID returns a fresh random profile identifier.
func NewProfileID() ProfileID {
	return ProfileID(uuid.New())
}

// ParseProfileID parses a non-nil UUID string into a ProfileID.
func ParseProfileID(s string) (ProfileID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return ProfileID{}, dErrors.New(dErrors.CodeInvalidInput, "profile id must not be the nil UUID")
	}
	return ProfileID(parsed), nil
}

func (id ProfileID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id has not been assigned yet.
func (id ProfileID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the nil id as an empty string so unsaved profiles
// serialize without a placeholder UUID.
func (id ProfileID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *ProfileID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = ProfileID{}
		return nil
	}
	parsed, err := ParseProfileID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
