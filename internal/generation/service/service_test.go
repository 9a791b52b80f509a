package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/mock/gomock"

	"lexdraft/internal/generation/metrics"
	"lexdraft/internal/generation/service/mocks"
	"lexdraft/internal/profile/models"
	id "lexdraft/pkg/domain"
	dErrors "lexdraft/pkg/domain-errors"
	audit "lexdraft/pkg/platform/audit"
	"lexdraft/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	repo      *mocks.MockRepository
	generator *mocks.MockGenerator
	forms     *mocks.MockFormLog
	audit     *mocks.MockAuditPublisher
	service   *Service
	events    []audit.Event
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.repo = mocks.NewMockRepository(s.ctrl)
	s.generator = mocks.NewMockGenerator(s.ctrl)
	s.forms = mocks.NewMockFormLog(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.events = nil
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.events = append(s.events, e)
		return nil
	}).AnyTimes()

	s.service = New(s.repo, s.generator,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithAuditPublisher(s.audit),
		WithFormLog(s.forms),
		WithTracer(noop.NewTracerProvider().Tracer("test")),
	)
}

func (s *ServiceSuite) actions() []string {
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func states(r *Result) []State {
	out := []State{StateDraft}
	for _, t := range r.Transitions {
		out = append(out, t.To)
	}
	return out
}

// expectCreate persists the profile under a fresh ID.
func (s *ServiceSuite) expectCreate() id.ProfileID {
	profileID := id.NewProfileID()
	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *models.Profile) (*models.Profile, error) {
			saved := p.Clone()
			saved.ID = profileID
			return saved, nil
		})
	return profileID
}

// expectDocument records the echo and returns markdown for one document.
func (s *ServiceSuite) expectDocument(profileID id.ProfileID, doc models.DocType, markdown string, gaps ...models.Gap) *gomock.Call {
	s.generator.EXPECT().SaveForm(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(_ context.Context, pid id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
			s.Equal(doc, form.DocType())
			return models.NewFormRecord(pid, form, time.Now())
		})
	s.forms.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	return s.generator.EXPECT().Generate(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error) {
			s.Equal(doc, form.DocType())
			return &models.GenerationResult{DocType: doc, Markdown: markdown, Gaps: gaps}, nil
		})
}

func (s *ServiceSuite) TestMissingVenueBlocksWithoutSideEffects() {
	p := testutil.CompleteProfile()
	p.DisputeResolution.Venue = ""

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  p,
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS, models.DocTypePrivacy},
	})
	s.Require().NoError(err)
	s.True(res.Blocked)
	s.Equal(StateBlocked, res.State)
	s.Equal([]State{StateDraft, StateValidating, StateBlocked}, states(res))
	s.Require().Len(res.Gaps, 1)
	s.Equal("dispute_resolution.venue", res.Gaps[0].Field)
	s.Empty(res.Documents)
	s.Nil(res.Profile)
	s.Equal([]models.DocType{models.DocTypeToS, models.DocTypePrivacy}, res.Incomplete)
	s.Equal([]string{string(audit.EventGenerationBlocked)}, s.actions())
}

func (s *ServiceSuite) TestToSOnly() {
	profileID := s.expectCreate()
	s.expectDocument(profileID, models.DocTypeToS, "# Terms of Service")

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().NoError(err)
	s.Equal(StateCompleted, res.State)
	s.Equal("# Terms of Service", res.Markdown)
	s.Equal([]models.DocType{models.DocTypeToS}, res.Completed)
	s.Empty(res.Incomplete)
	s.Require().NotNil(res.Profile)
	s.Equal(profileID, res.Profile.ID)
	s.Equal([]State{StateDraft, StateValidating, StateReconciling, StatePersisting, StateGenerating, StateCompleted}, states(res))
	s.Equal([]string{string(audit.EventFormSaved), string(audit.EventGenerationCompleted)}, s.actions())
}

func (s *ServiceSuite) TestBothDocumentsRunInCanonicalOrder() {
	profileID := id.NewProfileID()
	var persisted *models.Profile
	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *models.Profile) (*models.Profile, error) {
			persisted = p.Clone()
			persisted.ID = profileID
			return persisted.Clone(), nil
		})

	form := testutil.CompleteForm()
	form.Venue = testutil.Ptr("Courts of New York")
	form.DataCategories = []string{"Contact info", "Usage data"}
	form.DataInventory = []models.DataInventoryItem{{Category: "Contact info", Retention: testutil.Ptr("3 years")}}

	warn := models.Gap{Severity: models.SeverityWarn, Message: "Retention period missing for analytics"}
	tos := s.expectDocument(profileID, models.DocTypeToS, "# Terms of Service")
	s.generator.EXPECT().SaveForm(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(_ context.Context, pid id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
			return models.NewFormRecord(pid, form, time.Now())
		})
	s.forms.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	privacy := s.generator.EXPECT().Generate(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.ProfileID, form models.DocumentForm) (*models.GenerationResult, error) {
			s.Equal(models.DocTypePrivacy, form.DocType())
			s.Require().NotNil(persisted, "profile is stored before drafting")
			s.Equal("Courts of New York", persisted.DisputeResolution.Venue)
			s.Require().Len(persisted.DataCategories, 2)
			contact := persisted.DataCategories[0]
			s.Equal("3 years", contact.Retention)
			s.Equal([]string{"account", "support"}, contact.Purposes)
			usage := persisted.DataCategories[1]
			s.Equal("Usage data", usage.Category)
			s.Equal("2 years", usage.Retention)
			return &models.GenerationResult{DocType: models.DocTypePrivacy, Markdown: "# Privacy Policy", Gaps: []models.Gap{warn}}, nil
		})
	gomock.InOrder(tos, privacy)

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  testutil.CompleteProfile(),
		Form:     form,
		DocTypes: []models.DocType{models.DocTypePrivacy, models.DocTypeToS},
	})
	s.Require().NoError(err)
	s.Equal([]models.DocType{models.DocTypeToS, models.DocTypePrivacy}, res.Completed)
	s.Equal("# Privacy Policy", res.Markdown, "preview shows the last document")
	s.Require().Len(res.Documents, 2)
	s.Equal(models.DocTypeToS, res.Documents[0].DocType)
	s.Equal("Courts of New York", res.Profile.DisputeResolution.Venue)

	s.Require().Len(res.Gaps, 1)
	s.Equal(models.DocTypePrivacy, res.Gaps[0].DocType, "generator gaps are tagged with their document")
	s.False(res.Blocked)

	var generating []models.DocType
	for _, t := range res.Transitions {
		if t.To == StateGenerating {
			generating = append(generating, t.DocType)
		}
	}
	s.Equal([]models.DocType{models.DocTypeToS, models.DocTypePrivacy}, generating)
}

func (s *ServiceSuite) TestExistingProfileIsUpdated() {
	p := testutil.CompleteProfile()
	p.ID = id.NewProfileID()
	s.repo.EXPECT().Update(gomock.Any(), p.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.ProfileID, in *models.Profile) (*models.Profile, error) {
			return in, nil
		})
	s.expectDocument(p.ID, models.DocTypeToS, "# Terms")

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  p,
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().NoError(err)
	s.Equal(StateCompleted, res.State)
}

func (s *ServiceSuite) TestCancellationDuringPrivacyKeepsToS() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	profileID := s.expectCreate()
	s.expectDocument(profileID, models.DocTypeToS, "# Terms")
	s.generator.EXPECT().SaveForm(gomock.Any(), profileID, gomock.Any()).Return(nil, nil)
	s.generator.EXPECT().Generate(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ id.ProfileID, _ models.DocumentForm) (*models.GenerationResult, error) {
			cancel()
			return nil, ctx.Err()
		})

	res, err := s.service.ValidateAndGenerate(ctx, Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS, models.DocTypePrivacy},
	})
	s.Require().Error(err)
	s.True(errors.Is(err, context.Canceled))
	s.True(dErrors.HasCode(err, dErrors.CodeCanceled))
	s.Contains(err.Error(), "privacy")

	s.Require().NotNil(res)
	s.Equal(StateCanceled, res.State)
	s.Equal([]models.DocType{models.DocTypeToS}, res.Completed)
	s.Equal([]models.DocType{models.DocTypePrivacy}, res.Incomplete)
	s.Equal("# Terms", res.Markdown)
	s.Contains(s.actions(), string(audit.EventGenerationCanceled))
}

func (s *ServiceSuite) TestCancellationBeforePersistTouchesNothing() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.service.ValidateAndGenerate(ctx, Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeCanceled))
	s.Equal(StateCanceled, res.State)
	s.Nil(res.Profile)
	s.Empty(res.Completed)
}

func (s *ServiceSuite) TestDeadlineMapsToTimeout() {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := s.service.ValidateAndGenerate(ctx, Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.True(errors.Is(err, context.DeadlineExceeded))
}

func (s *ServiceSuite) TestGeneratorFailureKeepsEarlierDocuments() {
	profileID := s.expectCreate()
	s.expectDocument(profileID, models.DocTypeToS, "# Terms")
	s.generator.EXPECT().SaveForm(gomock.Any(), profileID, gomock.Any()).Return(nil, nil)
	s.generator.EXPECT().Generate(gomock.Any(), profileID, gomock.Any()).Return(nil, errors.New("bad gateway"))

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS, models.DocTypePrivacy},
	})
	var upstream *UpstreamError
	s.Require().ErrorAs(err, &upstream)
	s.Equal(StageGenerate, upstream.Stage)
	s.Equal(models.DocTypePrivacy, upstream.DocType)
	s.Equal([]models.DocType{models.DocTypeToS}, upstream.Completed)

	s.Equal(StateFailed, res.State)
	s.Require().Len(res.Documents, 1)
	s.Equal("# Terms", res.Documents[0].Markdown)
	s.Equal([]models.DocType{models.DocTypePrivacy}, res.Incomplete)
	s.Require().NotNil(res.Profile)
}

func (s *ServiceSuite) TestPersistFailureSkipsGenerator() {
	s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	var upstream *UpstreamError
	s.Require().ErrorAs(err, &upstream)
	s.Equal(StagePersist, upstream.Stage)
	s.Equal(StateFailed, res.State)
	s.Nil(res.Profile)
}

func (s *ServiceSuite) TestFormEchoFailureIsNotFatal() {
	profileID := s.expectCreate()
	s.generator.EXPECT().SaveForm(gomock.Any(), profileID, gomock.Any()).DoAndReturn(
		func(_ context.Context, pid id.ProfileID, form models.DocumentForm) (*models.FormRecord, error) {
			return models.NewFormRecord(pid, form, time.Now())
		})
	s.forms.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	s.generator.EXPECT().Generate(gomock.Any(), profileID, gomock.Any()).Return(&models.GenerationResult{Markdown: "# Terms"}, nil)

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  testutil.CompleteProfile(),
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().NoError(err)
	s.Equal(StateCompleted, res.State)
}

func (s *ServiceSuite) TestRequestValidation() {
	_, err := s.service.ValidateAndGenerate(context.Background(), Request{Profile: testutil.CompleteProfile()})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "no document selected")

	_, err = s.service.ValidateAndGenerate(context.Background(), Request{DocTypes: []models.DocType{models.DocTypeToS}})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "no profile")
}

func (s *ServiceSuite) TestCallerProfileIsNotMutated() {
	p := testutil.CompleteProfile()
	form := testutil.CompleteForm()
	form.ProductName = testutil.Ptr("Renamed Insights")

	profileID := s.expectCreate()
	s.expectDocument(profileID, models.DocTypeToS, "# Terms")

	res, err := s.service.ValidateAndGenerate(context.Background(), Request{
		Profile:  p,
		Form:     form,
		DocTypes: []models.DocType{models.DocTypeToS},
	})
	s.Require().NoError(err)
	s.Equal("Acme Insights", p.Product.ProductName)
	s.Equal("Renamed Insights", res.Profile.Product.ProductName)
	s.True(p.ID.IsNil())
}

func (s *ServiceSuite) TestValidateHasNoSideEffects() {
	p := testutil.CompleteProfile(models.JurisdictionEU)
	p.LegalBases = nil

	report, err := s.service.Validate(context.Background(), Request{
		Profile:  p,
		Form:     testutil.CompleteForm(),
		DocTypes: []models.DocType{models.DocTypePrivacy},
	})
	s.Require().NoError(err)
	s.True(report.Blocked)
	s.Equal([]models.DocType{models.DocTypePrivacy}, report.DocTypes)
	s.Equal([]string{string(audit.EventValidationRun)}, s.actions())
}

func (s *ServiceSuite) TestRequirementsUseProfileJurisdictions() {
	p := testutil.CompleteProfile(models.JurisdictionUK)
	set := s.service.Requirements([]models.DocType{models.DocTypePrivacy}, nil, p)

	var fields []string
	for _, f := range set.Required {
		fields = append(fields, f.Path)
	}
	s.Contains(fields, "legal_bases.lawful_bases_per_purpose")
}
