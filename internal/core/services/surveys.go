package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
	"github.com/chandra-gummaluru/beamer-plus/pkg/middleware"
)

var surveyTracer = otel.Tracer("survey-service")

type surveyRecord struct {
	survey    domain.Survey
	responses []domain.SurveyResponse
}

// SurveyService owns the survey lifecycle and the response log. The
// surveys map is mutated only on the event loop; request/response
// operations enqueue a step and wait. Surveys share the broadcast
// fabric for notifications but are independent of slide state.
type SurveyService struct {
	log          *slog.Logger
	loop         *Loop
	registry     contracts.Registry
	backends     contracts.BackendRegistry
	surveys      map[string]*surveyRecord
	defaultCount int
}

func NewSurveyService(
	log *slog.Logger,
	loop *Loop,
	registry contracts.Registry,
	backends contracts.BackendRegistry,
	defaultSummaryCount int,
) *SurveyService {
	if defaultSummaryCount <= 0 {
		defaultSummaryCount = domain.DefaultSummaryCount
	}
	return &SurveyService{
		log:          log,
		loop:         loop,
		registry:     registry,
		backends:     backends,
		surveys:      make(map[string]*surveyRecord),
		defaultCount: defaultSummaryCount,
	}
}

// Create registers a new active survey and returns it. A backend name,
// if given, must be resolvable now; failing late, at analyze time,
// would waste a whole collection round.
func (s *SurveyService) Create(ctx context.Context, question, backend string, summaryCount int) (domain.Survey, error) {
	ctx, span := surveyTracer.Start(ctx, "SurveyService.Create", trace.WithAttributes(
		attribute.String("survey.backend", backend),
	))
	defer span.End()
	if strings.TrimSpace(question) == "" {
		err := &domain.ValidationError{Reason: "question is required"}
		span.RecordError(err)
		return domain.Survey{}, err
	}
	if backend != "" {
		if _, ok := s.backends.Resolve(backend); !ok {
			err := &domain.ValidationError{Reason: "analysis backend " + backend + " is not loaded"}
			span.RecordError(err)
			s.log.ErrorContext(ctx, "surveys - create - backend not resolvable", "backend", backend)
			return domain.Survey{}, err
		}
	}
	if summaryCount <= 0 {
		summaryCount = s.defaultCount
	}
	survey := domain.Survey{
		ID:           strings.ToLower(ulid.Make().String()),
		Question:     question,
		CreatedAt:    time.Now(),
		Active:       true,
		Backend:      backend,
		SummaryCount: summaryCount,
	}
	if err := s.loop.Call(ctx, func() {
		s.surveys[survey.ID] = &surveyRecord{survey: survey}
	}); err != nil {
		span.RecordError(err)
		return domain.Survey{}, err
	}
	span.SetAttributes(attribute.String("survey.id", survey.ID))
	s.log.InfoContext(ctx, "surveys - create - survey created", "survey_id", survey.ID, "backend", backend, "summary_count", summaryCount)
	return survey, nil
}

// Respond appends a response and returns the new total. The presenter
// room is notified with the response and the running total. A closed
// survey rejects every response explicitly, never silently.
func (s *SurveyService) Respond(ctx context.Context, surveyID, text string) (int, error) {
	ctx, span := surveyTracer.Start(ctx, "SurveyService.Respond", trace.WithAttributes(
		attribute.String("survey.id", surveyID),
	))
	defer span.End()
	var total int
	var opErr error
	if err := s.loop.Call(ctx, func() {
		rec, ok := s.surveys[surveyID]
		if !ok {
			opErr = domain.ErrSurveyNotFound
			return
		}
		if !rec.survey.Active {
			opErr = domain.ErrSurveyClosed
			return
		}
		rec.responses = append(rec.responses, domain.SurveyResponse{
			Text:       text,
			ReceivedAt: time.Now(),
		})
		total = len(rec.responses)
		s.registry.Broadcast(ctx, domain.RoomPresenter, "", domain.NewEvent(domain.TypeSurveyResponse, domain.SurveyResponseData{
			SurveyID: surveyID,
			Response: text,
			Total:    total,
		}))
	}); err != nil {
		span.RecordError(err)
		return 0, err
	}
	if opErr != nil {
		span.RecordError(opErr)
		span.SetStatus(codes.Error, "response rejected")
		return 0, opErr
	}
	middleware.RecordSurveyResponse()
	span.SetAttributes(attribute.Int("survey.total_responses", total))
	s.log.InfoContext(ctx, "surveys - respond - response accepted", "survey_id", surveyID, "total", total)
	return total, nil
}

// Close deactivates a survey and notifies its survey room so response
// pages stop submitting. Closing an already-closed survey is a no-op.
func (s *SurveyService) Close(ctx context.Context, surveyID string) error {
	ctx, span := surveyTracer.Start(ctx, "SurveyService.Close", trace.WithAttributes(
		attribute.String("survey.id", surveyID),
	))
	defer span.End()
	var opErr error
	if err := s.loop.Call(ctx, func() {
		opErr = s.closeOnLoop(ctx, surveyID)
	}); err != nil {
		span.RecordError(err)
		return err
	}
	if opErr != nil {
		span.RecordError(opErr)
		return opErr
	}
	s.log.InfoContext(ctx, "surveys - close - survey closed", "survey_id", surveyID)
	return nil
}

// closeOnLoop is the close transition itself. It must already be
// running on the event loop; the router calls it from inside a
// survey_close step, Close wraps it for outside callers.
func (s *SurveyService) closeOnLoop(ctx context.Context, surveyID string) error {
	rec, ok := s.surveys[surveyID]
	if !ok {
		return domain.ErrSurveyNotFound
	}
	if !rec.survey.Active {
		return nil
	}
	rec.survey.Active = false
	s.registry.Broadcast(ctx, domain.SurveyRoom(surveyID), "", domain.NewEvent(domain.TypeSurveyClosed, domain.SurveyClosedData{
		SurveyID: surveyID,
	}))
	return nil
}

// Get returns a copy of one survey.
func (s *SurveyService) Get(ctx context.Context, surveyID string) (domain.Survey, error) {
	var survey domain.Survey
	var opErr error
	if err := s.loop.Call(ctx, func() {
		rec, ok := s.surveys[surveyID]
		if !ok {
			opErr = domain.ErrSurveyNotFound
			return
		}
		survey = rec.survey
	}); err != nil {
		return domain.Survey{}, err
	}
	return survey, opErr
}

// Responses returns the ordered response log, available after close.
func (s *SurveyService) Responses(ctx context.Context, surveyID string) ([]domain.SurveyResponse, error) {
	var responses []domain.SurveyResponse
	var opErr error
	if err := s.loop.Call(ctx, func() {
		rec, ok := s.surveys[surveyID]
		if !ok {
			opErr = domain.ErrSurveyNotFound
			return
		}
		responses = make([]domain.SurveyResponse, len(rec.responses))
		copy(responses, rec.responses)
	}); err != nil {
		return nil, err
	}
	return responses, opErr
}

// analysisSnapshot atomically reads everything the gateway needs so
// the backend can run off-loop against a stable view.
func (s *SurveyService) analysisSnapshot(ctx context.Context, surveyID string) (domain.Survey, []string, error) {
	var survey domain.Survey
	var texts []string
	var opErr error
	if err := s.loop.Call(ctx, func() {
		rec, ok := s.surveys[surveyID]
		if !ok {
			opErr = domain.ErrSurveyNotFound
			return
		}
		survey = rec.survey
		texts = make([]string, len(rec.responses))
		for i, r := range rec.responses {
			texts[i] = r.Text
		}
	}); err != nil {
		return domain.Survey{}, nil, err
	}
	return survey, texts, opErr
}
