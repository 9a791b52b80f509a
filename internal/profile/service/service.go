// Package service manages stored company profiles.
package service

import (
	"context"
	"errors"
	"log/slog"

	"lexdraft/internal/platform/metrics"
	"lexdraft/internal/profile/models"
	"lexdraft/internal/profile/reconcile"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

// Store is the profile repository.
type Store interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
	Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error)
	Delete(ctx context.Context, profileID id.ProfileID) error
	List(ctx context.Context) ([]models.ProfileSummary, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new profile. The store assigns the ID when p has none.
func (s *Service) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, s.storeError(ctx, "create", err)
	}
	s.metrics.IncrementProfilesCreated()
	s.logAudit(ctx, audit.EventProfileCreated, out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	out, err := s.store.Get(ctx, profileID)
	if err != nil {
		return nil, s.storeError(ctx, "get", err)
	}
	return out, nil
}

// Update merges incoming over the stored profile. Optional sections that
// incoming omits keep their stored values.
func (s *Service) Update(ctx context.Context, profileID id.ProfileID, incoming *models.Profile) (*models.Profile, error) {
	if incoming == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "profile is required")
	}
	existing, err := s.store.Get(ctx, profileID)
	if err != nil {
		return nil, s.storeError(ctx, "get", err)
	}
	merged := reconcile.MergeProfile(existing, incoming)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	out, err := s.store.Update(ctx, profileID, merged)
	if err != nil {
		return nil, s.storeError(ctx, "update", err)
	}
	s.metrics.IncrementProfilesUpdated()
	s.logAudit(ctx, audit.EventProfileUpdated, out)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, profileID id.ProfileID) error {
	existing, err := s.store.Get(ctx, profileID)
	if err != nil {
		return s.storeError(ctx, "get", err)
	}
	if err := s.store.Delete(ctx, profileID); err != nil {
		return s.storeError(ctx, "delete", err)
	}
	s.metrics.IncrementProfilesDeleted()
	s.logAudit(ctx, audit.EventProfileDeleted, existing)
	return nil
}

func (s *Service) List(ctx context.Context) ([]models.ProfileSummary, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list", err)
	}
	return out, nil
}

// storeError translates repository failures into domain errors.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "profile not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "profile already exists")
	case errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeCanceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "profile store timed out")
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "profile store failed",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
			"error", err,
		)
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "profile store failed")
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, p *models.Profile) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"event", string(event),
			"log_type", "audit",
			"request_id", requestID,
			"profile_id", p.ID.String(),
			"profile_name", p.Name,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		ProfileID: p.ID,
		Subject:   p.Name,
		Action:    string(event),
		RequestID: requestID,
		ActorID:   requestcontext.Operator(ctx),
		Timestamp: requestcontext.Now(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
