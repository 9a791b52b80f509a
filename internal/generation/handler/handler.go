// Package handler exposes validation, generation and requirement lookup over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lexdraft/internal/compliance"
	"lexdraft/internal/generation/service"
	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	"lexdraft/pkg/platform/httputil"
	"lexdraft/pkg/requestcontext"
)

// Service defines the generation operations the handler exposes.
type Service interface {
	Validate(ctx context.Context, req service.Request) (*service.Report, error)
	ValidateAndGenerate(ctx context.Context, req service.Request) (*service.Result, error)
	Requirements(docs []models.DocType, jurisdictions []models.Jurisdiction, profile *models.Profile) compliance.RequirementSet
	Forms(ctx context.Context, profileID id.ProfileID) ([]*models.FormRecord, error)
}

// ProfileReader resolves a stored profile when a request names one by ID.
type ProfileReader interface {
	Get(ctx context.Context, profileID id.ProfileID) (*models.Profile, error)
}

type Handler struct {
	service  Service
	profiles ProfileReader
	logger   *slog.Logger
}

func New(svc Service, profiles ProfileReader, logger *slog.Logger) *Handler {
	return &Handler{service: svc, profiles: profiles, logger: logger}
}

// Register mounts the generation routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/validate", h.handleValidate)
	r.Post("/v1/generate", h.handleGenerate)
	r.Get("/v1/requirements", h.handleRequirements)
	r.Get("/v1/profiles/{profileID}/forms", h.handleForms)
}

// generationRequest carries either a full profile or the ID of a stored one.
type generationRequest struct {
	Profile   *models.Profile     `json:"profile,omitempty"`
	ProfileID string              `json:"profile_id,omitempty"`
	Form      *models.UnifiedForm `json:"form,omitempty"`
	DocTypes  []string            `json:"doc_types"`

	docs      []models.DocType
	profileID id.ProfileID
}

func (r *generationRequest) Validate() error {
	docs, err := models.ParseDocTypes(r.DocTypes)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "doc_types must name at least one document")
	}
	r.docs = docs
	switch {
	case r.Profile != nil && r.ProfileID != "":
		return dErrors.New(dErrors.CodeBadRequest, "send either profile or profile_id, not both")
	case r.Profile == nil && r.ProfileID == "":
		return dErrors.New(dErrors.CodeBadRequest, "profile or profile_id is required")
	case r.ProfileID != "":
		r.profileID, err = id.ParseProfileID(r.ProfileID)
		return err
	}
	return nil
}

// toServiceRequest loads the stored profile when the body names one.
func (h *Handler) toServiceRequest(ctx context.Context, req *generationRequest) (service.Request, error) {
	profile := req.Profile
	if profile == nil {
		stored, err := h.profiles.Get(ctx, req.profileID)
		if err != nil {
			return service.Request{}, err
		}
		profile = stored
	}
	return service.Request{Profile: profile, Form: req.Form, DocTypes: req.docs}, nil
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[generationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	svcReq, err := h.toServiceRequest(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to load profile", err)
		return
	}
	report, err := h.service.Validate(ctx, svcReq)
	if err != nil {
		h.fail(ctx, w, "validation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// generateErrorResponse keeps the partial result next to the error.
type generateErrorResponse struct {
	httputil.ErrorResponse
	Result *service.Result `json:"result,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[generationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	svcReq, err := h.toServiceRequest(ctx, req)
	if err != nil {
		h.fail(ctx, w, "failed to load profile", err)
		return
	}
	result, err := h.service.ValidateAndGenerate(ctx, svcReq)
	if err == nil {
		httputil.WriteJSON(w, http.StatusOK, result)
		return
	}
	if result == nil {
		h.fail(ctx, w, "generation rejected", err)
		return
	}

	status, resp := generateFailure(err)
	h.logger.WarnContext(ctx, "generation did not complete",
		"request_id", requestID,
		"state", string(result.State),
		"status", status,
		"error", err,
	)
	resp.Result = result
	httputil.WriteJSON(w, status, resp)
}

// generateFailure picks the status for a run that stopped with a result.
// Upstream failures are 502 unless the cause is a client error the caller
// can fix, such as an unknown profile ID.
func generateFailure(err error) (int, generateErrorResponse) {
	var upstream *service.UpstreamError
	if errors.As(err, &upstream) {
		var de *dErrors.Error
		if errors.As(upstream.Err, &de) {
			switch de.Code {
			case dErrors.CodeNotFound, dErrors.CodeConflict, dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
				return httputil.StatusFor(de.Code), errorResponse(de.Code, de.Message)
			}
		}
		return http.StatusBadGateway, errorResponse(dErrors.CodeUpstream, upstream.Error())
	}
	code := dErrors.CodeOf(err)
	msg := ""
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) {
		msg = de.Message
	}
	return httputil.StatusFor(code), errorResponse(code, msg)
}

func errorResponse(code dErrors.Code, msg string) generateErrorResponse {
	return generateErrorResponse{ErrorResponse: httputil.ErrorResponse{Error: string(code), ErrorDescription: msg}}
}

func (h *Handler) handleRequirements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	docs, err := models.ParseDocTypes(splitQuery(q.Get("docs")))
	if err != nil {
		h.fail(ctx, w, "invalid docs", err)
		return
	}
	if len(docs) == 0 {
		docs = []models.DocType{models.DocTypeToS, models.DocTypePrivacy}
	}
	jurisdictions, err := models.ParseJurisdictions(splitQuery(q.Get("jurisdictions")))
	if err != nil {
		h.fail(ctx, w, "invalid jurisdictions", err)
		return
	}
	var profile *models.Profile
	if raw := q.Get("profile_id"); raw != "" {
		profileID, err := id.ParseProfileID(raw)
		if err != nil {
			h.fail(ctx, w, "invalid profile id", err)
			return
		}
		if profile, err = h.profiles.Get(ctx, profileID); err != nil {
			h.fail(ctx, w, "failed to load profile", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.Requirements(docs, jurisdictions, profile))
}

type formsResponse struct {
	Forms []*models.FormRecord `json:"forms"`
}

func (h *Handler) handleForms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, err := id.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		h.fail(ctx, w, "invalid profile id", err)
		return
	}
	forms, err := h.service.Forms(ctx, profileID)
	if err != nil {
		h.fail(ctx, w, "failed to list forms", err)
		return
	}
	if forms == nil {
		forms = []*models.FormRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, formsResponse{Forms: forms})
}

func splitQuery(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
