package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/circuit"
	"lexdraft/pkg/platform/sentinel"
	"lexdraft/pkg/requestcontext"
)

// Generator is what the orchestrator calls once per document.
type Generator interface {
	Generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error)
	SaveForm(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.FormRecord, error)
}

// Fallback calls the primary generator and switches to the secondary while
// the primary's circuit is open. Only unavailability counts as a failure;
// rejected requests and cancellations pass through untouched.
type Fallback struct {
	primary   Generator
	secondary Generator
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

func NewFallback(primary, secondary Generator, breaker *circuit.Breaker, logger *slog.Logger) *Fallback {
	if breaker == nil {
		breaker = circuit.New("generator")
	}
	return &Fallback{primary: primary, secondary: secondary, breaker: breaker, logger: logger}
}

func (f *Fallback) Generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error) {
	res, err := f.primary.Generate(ctx, profileID, form)
	if !f.useSecondary(ctx, err) {
		return res, err
	}
	res, err = f.secondary.Generate(ctx, profileID, form)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: fallback generator returned no result", sentinel.ErrInvalidState)
	}
	res.Gaps = append(res.Gaps, models.Gap{
		Severity: models.SeverityInfo,
		Message:  "Drafting service unavailable; this document is a section outline only",
		DocType:  form.DocType(),
	})
	return res, nil
}

func (f *Fallback) SaveForm(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
	rec, err := f.primary.SaveForm(ctx, profileID, form)
	if !f.useSecondary(ctx, err) {
		return rec, err
	}
	return f.secondary.SaveForm(ctx, profileID, form)
}

// useSecondary records err with the breaker and reports whether the call
// should be served by the secondary generator.
func (f *Fallback) useSecondary(ctx context.Context, err error) bool {
	if err == nil {
		if _, change := f.breaker.RecordSuccess(); change.Closed {
			f.log(ctx, "generator circuit closed")
		}
		return false
	}
	if !errors.Is(err, sentinel.ErrUnavailable) || ctx.Err() != nil {
		return false
	}
	useFallback, change := f.breaker.RecordFailure()
	if change.Opened {
		f.log(ctx, "generator circuit opened", "error", err)
	}
	return useFallback && f.secondary != nil
}

func (f *Fallback) log(ctx context.Context, msg string, args ...any) {
	if f.logger == nil {
		return
	}
	args = append(args, "request_id", requestcontext.RequestID(ctx), "breaker", f.breaker.Name())
	f.logger.WarnContext(ctx, msg, args...)
}
