package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lexdraft/internal/profile/models"
	dErrors "lexdraft/pkg/domain-errors"
)

// Stage names the external call that failed.
type Stage string

const (
	StagePersist  Stage = "persist"
	StageSaveForm Stage = "save_form"
	StageGenerate Stage = "generate"
)

// UpstreamError reports a repository or generator failure. Completed lists
// the documents generated before the failure; their results stay on the Result.
type UpstreamError struct {
	Stage     Stage
	DocType   models.DocType
	Completed []models.DocType
	Err       error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generation failed at %s", e.Stage)
	if e.DocType != "" {
		fmt.Fprintf(&b, " (%s)", e.DocType)
	}
	if len(e.Completed) > 0 {
		fmt.Fprintf(&b, " after completing %s", joinDocs(e.Completed))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// canceledError wraps the context error with the matching domain code so
// errors.Is(err, context.Canceled) keeps working for callers.
func canceledError(ctx context.Context, pending []models.DocType) error {
	code := dErrors.CodeCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code = dErrors.CodeTimeout
	}
	msg := "generation canceled"
	if len(pending) > 0 {
		msg += "; not completed: " + joinDocs(pending)
	}
	return dErrors.Wrap(ctx.Err(), code, msg)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func joinDocs(docs []models.DocType) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
