package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lexdraft/internal/profile/models"
	"lexdraft/internal/profile/reconcile"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/requestcontext"
)

// State is a step of a generation request.
type State string

const (
	StateDraft       State = "draft"
	StateValidating  State = "validating"
	StateBlocked     State = "blocked"
	StateReconciling State = "reconciling"
	StatePersisting  State = "persisting"
	StateGenerating  State = "generating"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
	StateCanceled    State = "canceled"
)

// Terminal reports whether no further transition can follow.
func (s State) Terminal() bool {
	switch s {
	case StateBlocked, StateCompleted, StateFailed, StateCanceled:
		return true
	}
	return false
}

// Transition is one edge of the state trail. DocType is set while generating.
type Transition struct {
	From    State          `json:"from"`
	To      State          `json:"to"`
	DocType models.DocType `json:"doc_type,omitempty"`
	At      time.Time      `json:"at"`
}

var errProfileRequired = dErrors.New(dErrors.CodeBadRequest, "profile is required")

// Request is one validate-and-generate call.
type Request struct {
	Profile  *models.Profile
	Form     *models.UnifiedForm
	DocTypes []models.DocType
}

func (r Request) docTypes() ([]models.DocType, error) {
	docs := models.NormalizeDocTypes(r.DocTypes)
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one document type must be selected")
	}
	return docs, nil
}

func (r Request) form() *models.UnifiedForm {
	if r.Form == nil {
		return &models.UnifiedForm{}
	}
	return r.Form
}

// DocumentResult is one generator response.
type DocumentResult struct {
	DocType  models.DocType `json:"doc_type"`
	Markdown string         `json:"markdown"`
	Gaps     []models.Gap   `json:"gaps"`
}

// Result is returned for every outcome, including failures, so callers keep
// whatever completed before the request stopped.
type Result struct {
	State State `json:"state"`
	// Markdown is the latest generated document, kept as the preview.
	Markdown  string           `json:"markdown"`
	Documents []DocumentResult `json:"documents"`
	// Gaps holds validation gaps followed by every generator's advisory gaps.
	Gaps        []models.Gap     `json:"gaps"`
	Blocked     bool             `json:"blocked"`
	Completed   []models.DocType `json:"completed"`
	Incomplete  []models.DocType `json:"incomplete"`
	Transitions []Transition     `json:"transitions"`
	// Profile is the persisted profile; nil until persistence succeeds.
	Profile *models.Profile `json:"profile,omitempty"`
}

// Report is the outcome of a validation-only call.
type Report struct {
	DocTypes []models.DocType `json:"doc_types"`
	Gaps     []models.Gap     `json:"gaps"`
	Blocked  bool             `json:"blocked"`
}

type run struct {
	ctx    context.Context
	result *Result
}

func (r *run) to(next State, doc models.DocType) {
	r.result.Transitions = append(r.result.Transitions, Transition{
		From:    r.result.State,
		To:      next,
		DocType: doc,
		At:      requestcontext.Now(r.ctx),
	})
	r.result.State = next
}

// ValidateAndGenerate drives one request through the state machine:
//
//	draft -> validating -> blocked
//	draft -> validating -> reconciling -> persisting -> generating[i] -> completed
//
// Any state after validating may end in failed or canceled. The profile is
// persisted exactly once, before the first generator call. Documents run
// strictly in canonical order and one at a time. A non-nil error always comes
// with a non-nil Result holding the partial outcome.
func (s *Service) ValidateAndGenerate(ctx context.Context, req Request) (*Result, error) {
	docs, err := req.docTypes()
	if err != nil {
		return nil, err
	}
	if req.Profile == nil {
		return nil, errProfileRequired
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "generation.ValidateAndGenerate",
		trace.WithAttributes(attribute.StringSlice("doc_types", docStrings(docs))))
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.ObserveRequestLatency(time.Since(start)) }()

	snapshot := req.Profile.Clone()
	form := req.form()
	r := &run{ctx: ctx, result: &Result{
		State:       StateDraft,
		Documents:   []DocumentResult{},
		Gaps:        []models.Gap{},
		Completed:   []models.DocType{},
		Incomplete:  append([]models.DocType(nil), docs...),
		Transitions: []Transition{},
	}}

	r.to(StateValidating, "")
	gaps := s.validator.Validate(snapshot, form, docs)
	r.result.Gaps = append(r.result.Gaps, gaps...)
	s.recordGaps(gaps, "validation")
	if models.HasBlocking(gaps) {
		r.to(StateBlocked, "")
		r.result.Blocked = true
		span.SetAttributes(attribute.Bool("blocked", true))
		s.finish(ctx, r, snapshot.ID, docs, "blocked")
		return r.result, nil
	}

	if ctx.Err() != nil {
		return s.cancel(ctx, span, r, snapshot.ID, docs)
	}

	r.to(StateReconciling, "")
	merged := snapshot
	for _, doc := range docs {
		next, err := reconcile.Reconcile(merged, form, doc)
		if err != nil {
			// Validate already reconciled the same input; reaching this means
			// the two disagree, which is a programming error.
			r.to(StateFailed, doc)
			span.RecordError(err)
			span.SetStatus(codes.Error, "reconciliation failed")
			s.finish(ctx, r, snapshot.ID, docs, "failed")
			return r.result, dErrors.Wrap(err, dErrors.CodeInternal, "reconciliation disagreed with validation")
		}
		merged = next
	}

	if ctx.Err() != nil {
		return s.cancel(ctx, span, r, snapshot.ID, docs)
	}

	r.to(StatePersisting, "")
	persisted, err := s.persist(ctx, merged)
	if err != nil {
		if isContextErr(err) && ctx.Err() != nil {
			return s.cancel(ctx, span, r, snapshot.ID, docs)
		}
		return s.fail(ctx, span, r, snapshot.ID, docs, &UpstreamError{Stage: StagePersist, Err: err})
	}
	r.result.Profile = persisted
	profileID := persisted.ID

	for i, doc := range docs {
		if ctx.Err() != nil {
			return s.cancel(ctx, span, r, profileID, docs)
		}
		r.to(StateGenerating, doc)
		res, stage, err := s.generate(ctx, profileID, form.For(doc))
		if err != nil {
			if isContextErr(err) && ctx.Err() != nil {
				return s.cancel(ctx, span, r, profileID, docs)
			}
			return s.fail(ctx, span, r, profileID, docs, &UpstreamError{
				Stage:     stage,
				DocType:   doc,
				Completed: append([]models.DocType(nil), docs[:i]...),
				Err:       err,
			})
		}

		docGaps := tagGaps(res.Gaps, doc)
		r.result.Documents = append(r.result.Documents, DocumentResult{DocType: doc, Markdown: res.Markdown, Gaps: docGaps})
		r.result.Markdown = res.Markdown
		r.result.Gaps = append(r.result.Gaps, docGaps...)
		r.result.Completed = append(r.result.Completed, doc)
		r.result.Incomplete = append([]models.DocType(nil), docs[i+1:]...)
		s.recordGaps(docGaps, "generator")
		s.metrics.IncrementDocument(string(doc))
	}

	r.to(StateCompleted, "")
	span.SetStatus(codes.Ok, "")
	s.finish(ctx, r, profileID, docs, "completed")
	return r.result, nil
}

func (s *Service) persist(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "generation.persist")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStageLatency(string(StagePersist), time.Since(start)) }()

	var (
		out *models.Profile
		err error
	)
	if p.ID.IsNil() {
		out, err = s.repo.Create(ctx, p)
	} else {
		out, err = s.repo.Update(ctx, p.ID, p)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if out == nil || out.ID.IsNil() {
		return nil, errors.New("repository returned a profile without an id")
	}
	return out, nil
}

// generate saves the audit echo and then generates one document. The stage
// identifies which call failed.
func (s *Service) generate(ctx context.Context, profileID id.ProfileID, form models.DocumentForm) (*models.GenerationResult, Stage, error) {
	ctx, span := s.tracer.Start(ctx, "generation.generate",
		trace.WithAttributes(attribute.String("doc_type", string(form.DocType()))))
	defer span.End()

	start := time.Now()
	record, err := s.generator.SaveForm(ctx, profileID, form)
	s.metrics.ObserveStageLatency(string(StageSaveForm), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, StageSaveForm, err
	}
	if s.forms != nil && record != nil {
		if err := s.forms.Append(ctx, record); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "failed to record form echo",
				"request_id", requestcontext.RequestID(ctx),
				"doc_type", form.DocType(),
				"error", err,
			)
		}
	}
	s.logAudit(ctx, string(audit.EventFormSaved), profileID, "doc_types", []string{string(form.DocType())})

	start = time.Now()
	res, err := s.generator.Generate(ctx, profileID, form)
	s.metrics.ObserveStageLatency(string(StageGenerate), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, StageGenerate, err
	}
	if res == nil {
		return nil, StageGenerate, errors.New("generator returned no result")
	}
	return res, StageGenerate, nil
}

func (s *Service) cancel(ctx context.Context, span trace.Span, r *run, profileID id.ProfileID, docs []models.DocType) (*Result, error) {
	r.to(StateCanceled, "")
	err := canceledError(ctx, r.result.Incomplete)
	span.RecordError(err)
	span.SetStatus(codes.Error, "canceled")
	s.finish(context.WithoutCancel(ctx), r, profileID, docs, "canceled")
	return r.result, err
}

func (s *Service) fail(ctx context.Context, span trace.Span, r *run, profileID id.ProfileID, docs []models.DocType, err *UpstreamError) (*Result, error) {
	r.to(StateFailed, err.DocType)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "generation failed",
			"request_id", requestcontext.RequestID(ctx),
			"stage", err.Stage,
			"doc_type", err.DocType,
			"error", err.Err,
		)
	}
	s.finish(ctx, r, profileID, docs, "failed", "reason", err.Error())
	return r.result, err
}

func (s *Service) finish(ctx context.Context, r *run, profileID id.ProfileID, docs []models.DocType, decision string, extra ...any) {
	s.metrics.IncrementOutcome(string(r.result.State))
	event := map[State]audit.AuditEvent{
		StateBlocked:   audit.EventGenerationBlocked,
		StateCompleted: audit.EventGenerationCompleted,
		StateFailed:    audit.EventGenerationFailed,
		StateCanceled:  audit.EventGenerationCanceled,
	}[r.result.State]
	args := append([]any{
		"decision", decision,
		"doc_types", docStrings(docs),
		"gap_count", len(r.result.Gaps),
	}, extra...)
	s.logAudit(ctx, string(event), profileID, args...)
}

func (s *Service) recordGaps(gaps []models.Gap, origin string) {
	counts := make(map[models.Severity]int)
	for _, g := range gaps {
		counts[g.Severity]++
	}
	for sev, n := range counts {
		s.metrics.AddGaps(string(sev), origin, n)
	}
}

// tagGaps stamps generator gaps with their document type.
func tagGaps(gaps []models.Gap, doc models.DocType) []models.Gap {
	out := make([]models.Gap, len(gaps))
	for i, g := range gaps {
		if g.DocType == "" {
			g.DocType = doc
		}
		if g.Severity == "" {
			g.Severity = models.SeverityInfo
		}
		out[i] = g
	}
	return out
}

func docStrings(docs []models.DocType) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = string(d)
	}
	return out
}
