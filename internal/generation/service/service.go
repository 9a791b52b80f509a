// Package service orchestrates document generation: validate the profile and
// form, reconcile the form into the profile, persist the result once, then
// call the generator for each selected document in canonical order.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lexdraft/internal/compliance"
	"lexdraft/internal/generation/metrics"
	"lexdraft/internal/profile/models"
	"lexdraft/pkg/attrs"
	id "lexdraft/pkg/domain"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Repository,Generator,FormLog,AuditPublisher

// Repository is the profile persistence the orchestrator writes through.
type Repository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, profileID id.ProfileID, profile *models.Profile) (*models.Profile, error)
}

// Generator synthesizes one document per call.
type Generator interface {
	Generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error)
	SaveForm(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.FormRecord, error)
}

// FormLog keeps the audit copies of submitted forms.
type FormLog interface {
	Append(ctx context.Context, record *models.FormRecord) error
	ListByProfile(ctx context.Context, profileID id.ProfileID) ([]*models.FormRecord, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs generation requests. It is safe for concurrent use; each
// request works on its own copy of the profile.
type Service struct {
	repo      Repository
	generator Generator
	validator *compliance.Validator

	forms          FormLog
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
	timeout        time.Duration
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

// WithFormLog records every form echo returned by the generator.
func WithFormLog(forms FormLog) Option {
	return func(s *Service) {
		s.forms = forms
	}
}

// WithTimeout bounds a whole generation request. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(repo Repository, generator Generator, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		generator: generator,
		validator: compliance.NewValidator(),
		tracer:    otel.Tracer("lexdraft/generation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs the validator without side effects.
func (s *Service) Validate(ctx context.Context, req Request) (*Report, error) {
	docs, err := req.docTypes()
	if err != nil {
		return nil, err
	}
	if req.Profile == nil {
		return nil, errProfileRequired
	}
	gaps := s.validator.Validate(req.Profile.Clone(), req.form(), docs)
	s.recordGaps(gaps, "validation")
	s.logAudit(ctx, string(audit.EventValidationRun), req.Profile.ID,
		"decision", decisionFor(gaps),
		"gap_count", len(gaps),
	)
	return &Report{
		DocTypes: docs,
		Gaps:     gaps,
		Blocked:  models.HasBlocking(gaps),
	}, nil
}

// Requirements returns the requirement set for docs and jurisdictions, with
// feature-flag rules evaluated against profile when one is given.
func (s *Service) Requirements(docs []models.DocType, jurisdictions []models.Jurisdiction, profile *models.Profile) compliance.RequirementSet {
	ctx := compliance.RuleContext{
		Jurisdictions: jurisdictions,
		DocTypes:      models.NormalizeDocTypes(docs),
		View:          compliance.View{Profile: profile},
	}
	if profile != nil && len(jurisdictions) == 0 {
		ctx.Jurisdictions = profile.Organization.JurisdictionsServed
	}
	return compliance.Requirements(ctx)
}

// Forms lists the audit copies recorded for a profile, oldest first.
func (s *Service) Forms(ctx context.Context, profileID id.ProfileID) ([]*models.FormRecord, error) {
	if s.forms == nil {
		return []*models.FormRecord{}, nil
	}
	return s.forms.ListByProfile(ctx, profileID)
}

func (s *Service) logAudit(ctx context.Context, event string, profileID id.ProfileID, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if !profileID.IsNil() {
		args = append(args, "profile_id", profileID.String())
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	e := audit.Event{
		ProfileID: profileID,
		Subject:   attrs.ExtractString(attributes, "subject"),
		Action:    event,
		Decision:  attrs.ExtractString(attributes, "decision"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		DocTypes:  attrs.ExtractStrings(attributes, "doc_types"),
		RequestID: requestID,
		ActorID:   requestcontext.Operator(ctx),
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}

func decisionFor(gaps []models.Gap) string {
	if models.HasBlocking(gaps) {
		return "blocked"
	}
	return "clean"
}
