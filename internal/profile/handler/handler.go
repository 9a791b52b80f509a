package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the profile operations the handler exposes.
type Service interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
	Update(ctx context.Context, profileID id.ProfileID, p *models.Profile) (*models.Profile, error)
	Delete(ctx context.Context, profileID id.ProfileID) error
	List(ctx context.Context) ([]models.ProfileSummary, error)
}

// AuditReader lists the audit trail of one profile.
type AuditReader interface {
	ListByProfile(ctx context.Context, profileID id.ProfileID) ([]audit.Event, error)
}

// Handler serves /v1/profiles.
type Handler struct {
	service Service
	audit   AuditReader
	logger  *slog.Logger
}

type Option func(*Handler)

// WithAuditReader exposes GET /v1/profiles/{id}/audit.
func WithAuditReader(r AuditReader) Option {
	return func(h *Handler) {
		h.audit = r
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the profile routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/profiles", h.handleList)
	r.Post("/v1/profiles", h.handleCreate)
	r.Get("/v1/profiles/{profileID}", h.handleGet)
	r.Put("/v1/profiles/{profileID}", h.handleUpdate)
	r.Delete("/v1/profiles/{profileID}", h.handleDelete)
	if h.audit != nil {
		r.Get("/v1/profiles/{profileID}/audit", h.handleAudit)
	}
}

type listResponse struct {
	Profiles []models.ProfileSummary `json:"profiles"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.service.List(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to list profiles", err)
		return
	}
	if out == nil {
		out = []models.ProfileSummary{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Profiles: out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := httputil.DecodeJSON[models.Profile](r)
	if err != nil {
		h.fail(ctx, w, "failed to decode profile", err)
		return
	}
	out, err := h.service.Create(ctx, p)
	if err != nil {
		h.fail(ctx, w, "failed to create profile", err)
		return
	}
	w.Header().Set("Location", "/v1/profiles/"+out.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	out, err := h.service.Get(ctx, profileID)
	if err != nil {
		h.fail(ctx, w, "failed to get profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	p, err := httputil.DecodeJSON[models.Profile](r)
	if err != nil {
		h.fail(ctx, w, "failed to decode profile", err)
		return
	}
	out, err := h.service.Update(ctx, profileID, p)
	if err != nil {
		h.fail(ctx, w, "failed to update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, profileID); err != nil {
		h.fail(ctx, w, "failed to delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type auditResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, ok := h.profileID(w, r)
	if !ok {
		return
	}
	events, err := h.audit.ListByProfile(ctx, profileID)
	if err != nil {
		h.fail(ctx, w, "failed to list audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, auditResponse{Events: events})
}

func (h *Handler) profileID(w http.ResponseWriter, r *http.Request) (id.ProfileID, bool) {
	profileID, err := id.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProfileID{}, false
	}
	return profileID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
