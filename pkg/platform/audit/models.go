package audit

import (
	"context"
	"time"

	id "lexdraft/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events that change what a published document
	// will say, or that remove operator data. These need long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	ProfileID id.ProfileID  `json:"profile_id"`
	Subject   string        `json:"subject,omitempty"`
	Action    string        `json:"action"`
	// Decision is the outcome, e.g. "completed", "blocked" or "failed".
	Decision string `json:"decision,omitempty"`
	Reason   string `json:"reason,omitempty"`
	// DocTypes lists the documents a generation event concerns.
	DocTypes  []string `json:"doc_types,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	// ActorID is the operator who performed the action, when known.
	ActorID string `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	// Profile events
	EventProfileCreated AuditEvent = "profile_created"
	EventProfileUpdated AuditEvent = "profile_updated"
	EventProfileDeleted AuditEvent = "profile_deleted"

	// Generation events
	EventValidationRun       AuditEvent = "validation_run"
	EventGenerationBlocked   AuditEvent = "generation_blocked"
	EventGenerationCompleted AuditEvent = "generation_completed"
	EventGenerationFailed    AuditEvent = "generation_failed"
	EventGenerationCanceled  AuditEvent = "generation_canceled"
	EventFormSaved           AuditEvent = "form_saved"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventProfileCreated:      CategoryCompliance,
	EventProfileUpdated:      CategoryCompliance,
	EventProfileDeleted:      CategoryCompliance,
	EventGenerationCompleted: CategoryCompliance,
	EventFormSaved:           CategoryCompliance,

	EventValidationRun:      CategoryOperations,
	EventGenerationBlocked:  CategoryOperations,
	EventGenerationFailed:   CategoryOperations,
	EventGenerationCanceled: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Events are append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProfile(ctx context.Context, profileID id.ProfileID) ([]Event, error)
}
