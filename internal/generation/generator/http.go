// Package generator provides the document generators the orchestrator calls:
// an HTTP client for the external drafting service, an in-process outline
// renderer, and a breaker-guarded combination of the two.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/requestcontext"
)

const maxErrorBody = 4 << 10

// HTTPClient calls the external drafting service.
//
//	POST {base}/api/{doc}/generate/{profile_id}  {"profile_id", "form"} -> {"markdown", "gaps"}
//	POST {base}/api/{doc}/{profile_id}           {"form"} -> {"form", "profile_id", "created_at"}
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

type HTTPOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.client = c
	}
}

func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPClient) {
		h.logger = logger
	}
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	h := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type generateRequest struct {
	ProfileID id.ProfileID        `json:"profile_id"`
	Form      models.DocumentForm `json:"form"`
}

type saveFormRequest struct {
	Form models.DocumentForm `json:"form"`
}

type saveFormResponse struct {
	Form      json.RawMessage `json:"form"`
	ProfileID string          `json:"profile_id"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *HTTPClient) Generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error) {
	doc := form.DocType()
	var out models.GenerationResult
	url := fmt.Sprintf("%s/api/%s/generate/%s", h.baseURL, doc, profileID)
	if err := h.post(ctx, url, generateRequest{ProfileID: profileID, Form: form}, &out); err != nil {
		return nil, err
	}
	out.DocType = doc
	if out.Gaps == nil {
		out.Gaps = []models.Gap{}
	}
	return &out, nil
}

func (h *HTTPClient) SaveForm(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
	doc := form.DocType()
	var out saveFormResponse
	url := fmt.Sprintf("%s/api/%s/%s", h.baseURL, doc, profileID)
	if err := h.post(ctx, url, saveFormRequest{Form: form}, &out); err != nil {
		return nil, err
	}
	record, err := models.NewFormRecord(profileID, form, out.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(out.Form) > 0 {
		record.Form = out.Form
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = requestcontext.Now(ctx)
	}
	return record, nil
}

func (h *HTTPClient) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode generator request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build generator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: generator request failed: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return h.statusError(ctx, url, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode generator response: %v", sentinel.ErrInvalidState, err)
	}
	return nil
}

// statusError maps a non-2xx response onto the sentinel errors.
func (h *HTTPClient) statusError(ctx context.Context, url string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		detail = body.Detail
	}
	if h.logger != nil {
		h.logger.WarnContext(ctx, "generator returned an error",
			"request_id", requestcontext.RequestID(ctx),
			"url", url,
			"status", resp.StatusCode,
			"detail", detail,
		)
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = sentinel.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		kind = sentinel.ErrConflict
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		kind = sentinel.ErrUnavailable
	default:
		kind = sentinel.ErrInvalidState
	}
	return fmt.Errorf("%w: generator status %d: %s", kind, resp.StatusCode, detail)
}
