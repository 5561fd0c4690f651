package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

var analysisTracer = otel.Tracer("analysis-gateway")

// AnalysisGateway invokes a survey's bound backend against a closed
// contract and validates the output before it can reach any client.
// The invocation runs on the caller's goroutine: a slow backend delays
// that one analyze response and nothing else. Results are never cached
// and the survey is never mutated; concurrent analyze calls for the
// same survey are independent.
type AnalysisGateway struct {
	log      *slog.Logger
	surveys  *SurveyService
	backends contracts.BackendRegistry
}

func NewAnalysisGateway(
	log *slog.Logger,
	surveys *SurveyService,
	backends contracts.BackendRegistry,
) *AnalysisGateway {
	return &AnalysisGateway{
		log:      log,
		surveys:  surveys,
		backends: backends,
	}
}

// Analyze summarizes a survey's responses via its bound backend.
func (g *AnalysisGateway) Analyze(ctx context.Context, surveyID string) ([]domain.Summary, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisGateway.Analyze", trace.WithAttributes(
		attribute.String("survey.id", surveyID),
	))
	defer span.End()
	survey, texts, err := g.surveys.analysisSnapshot(ctx, surveyID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(texts) == 0 {
		span.RecordError(domain.ErrNoResponses)
		return nil, domain.ErrNoResponses
	}
	if survey.Backend == "" {
		span.RecordError(domain.ErrNoBackend)
		return nil, domain.ErrNoBackend
	}
	backend, ok := g.backends.Resolve(survey.Backend)
	if !ok {
		span.RecordError(domain.ErrBackendNotLoaded)
		g.log.ErrorContext(ctx, "analysis - analyze - backend not loaded", "survey_id", surveyID, "backend", survey.Backend)
		return nil, domain.ErrBackendNotLoaded
	}
	span.SetAttributes(
		attribute.String("analysis.backend", survey.Backend),
		attribute.Int("analysis.responses", len(texts)),
		attribute.Int("analysis.summary_count", survey.SummaryCount),
	)

	summaries, err := invokeBackend(ctx, backend, texts, survey.SummaryCount)
	if err != nil {
		backendErr := &domain.BackendError{Backend: survey.Backend, Message: err.Error()}
		span.RecordError(backendErr)
		span.SetStatus(codes.Error, "backend failed")
		g.log.ErrorContext(ctx, "analysis - analyze - backend failed", "survey_id", surveyID, "backend", survey.Backend, "err", err)
		return nil, backendErr
	}
	if err := validateSummaries(summaries, survey.SummaryCount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid backend output")
		g.log.ErrorContext(ctx, "analysis - analyze - invalid backend output", "survey_id", surveyID, "backend", survey.Backend, "err", err)
		return nil, err
	}
	g.log.InfoContext(ctx, "analysis - analyze - summaries validated", "survey_id", surveyID, "backend", survey.Backend, "summaries", len(summaries))
	return summaries, nil
}

// invokeBackend shields the gateway from the backend: a panic inside
// the backend surfaces as an ordinary error instead of killing the
// process.
func invokeBackend(ctx context.Context, backend contracts.AnalysisBackend, texts []string, count int) (summaries []domain.Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			summaries = nil
			err = fmt.Errorf("backend panic: %v", rec)
		}
	}()
	return backend.Summarize(ctx, texts, count)
}

func validateSummaries(summaries []domain.Summary, want int) error {
	if len(summaries) != want {
		return &domain.SummaryShapeError{Want: want, Got: len(summaries)}
	}
	for i, s := range summaries {
		if s.Respondents < 0 {
			return &domain.SummaryElementError{Index: i, Reason: "negative respondent count"}
		}
		if strings.TrimSpace(s.Text) == "" {
			return &domain.SummaryElementError{Index: i, Reason: "empty summary text"}
		}
	}
	return nil
}
