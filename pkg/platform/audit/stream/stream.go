// Package stream carries audit events over Kafka. Sink publishes them and
// Decode turns a consumed record back into an event.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "lexdraft/pkg/platform/audit"
)

// Producer is satisfied by *kafka.Producer.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Envelope is the wire format. ID makes replays idempotent downstream.
type Envelope struct {
	ID    uuid.UUID   `json:"id"`
	Event audit.Event `json:"event"`
}

// Sink publishes audit events keyed by profile, so one profile's events keep
// their order within a partition.
type Sink struct {
	producer Producer
	newID    func() uuid.UUID
}

func NewSink(p Producer) *Sink {
	return &Sink{producer: p, newID: uuid.New}
}

func (s *Sink) Emit(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	value, err := json.Marshal(Envelope{ID: s.newID(), Event: event})
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}
	var key []byte
	if !event.ProfileID.IsNil() {
		key = []byte(event.ProfileID.String())
	}
	return s.producer.Publish(ctx, key, value)
}

// Decode parses a record value produced by Sink.
func Decode(value []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode audit envelope: %w", err)
	}
	if env.ID == uuid.Nil || env.Event.Action == "" {
		return Envelope{}, fmt.Errorf("decode audit envelope: missing id or action")
	}
	return env, nil
}
