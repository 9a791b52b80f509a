package consumer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"lexdraft/internal/platform/kafka"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/platform/audit/stream"
)

// EventStore materializes consumed events. AppendWithID must ignore duplicates.
type EventStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// StoreHandler writes audit events from Kafka into a queryable store.
type StoreHandler struct {
	store  EventStore
	logger *slog.Logger
}

func NewStoreHandler(store EventStore, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{store: store, logger: logger}
}

// Handle skips undecodable records so a poison message cannot stall the
// partition; store failures are returned for redelivery.
func (h *StoreHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := stream.Decode(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "skipping malformed audit record",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	return h.store.AppendWithID(ctx, env.ID, env.Event)
}
