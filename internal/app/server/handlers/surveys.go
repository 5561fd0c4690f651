package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/services"
	"github.com/chandra-gummaluru/beamer-plus/pkg/logging"
)

// SurveyHandler is the request/response boundary in front of the
// survey manager and the analysis gateway. Transport encoding lives
// here; the services only see typed calls and typed errors.
type SurveyHandler struct {
	surveys  *services.SurveyService
	gateway  *services.AnalysisGateway
	backends contracts.BackendRegistry
}

func NewSurveyHandler(
	surveys *services.SurveyService,
	gateway *services.AnalysisGateway,
	backends contracts.BackendRegistry,
) *SurveyHandler {
	return &SurveyHandler{
		surveys:  surveys,
		gateway:  gateway,
		backends: backends,
	}
}

type createSurveyRequest struct {
	Question     string `json:"question"`
	Backend      string `json:"backend,omitempty"`
	SummaryCount int    `json:"summary_count,omitempty"`
}

type respondRequest struct {
	Text string `json:"text"`
}

type respondResponse struct {
	Accepted bool `json:"accepted"`
	Total    int  `json:"total"`
}

type responsesResponse struct {
	Responses []domain.SurveyResponse `json:"responses"`
	Count     int                     `json:"count"`
}

type analyzeResponse struct {
	Summaries []domain.Summary `json:"summaries"`
}

type backendsResponse struct {
	Backends []string `json:"backends"`
}

// Create handles POST /api/surveys.
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	survey, err := h.surveys.Create(r.Context(), req.Question, req.Backend, req.SummaryCount)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

// Respond handles POST /api/surveys/{surveyID}/responses.
func (h *SurveyHandler) Respond(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyID")
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	total, err := h.surveys.Respond(r.Context(), surveyID, req.Text)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, respondResponse{Accepted: true, Total: total})
}

// Responses handles GET /api/surveys/{surveyID}/responses.
func (h *SurveyHandler) Responses(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyID")
	responses, err := h.surveys.Responses(r.Context(), surveyID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if responses == nil {
		responses = []domain.SurveyResponse{}
	}
	writeJSON(w, http.StatusOK, responsesResponse{Responses: responses, Count: len(responses)})
}

// Close handles POST /api/surveys/{surveyID}/close.
func (h *SurveyHandler) Close(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyID")
	if err := h.surveys.Close(r.Context(), surveyID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analyze handles POST /api/surveys/{surveyID}/analyze.
func (h *SurveyHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "surveyID")
	summaries, err := h.gateway.Analyze(r.Context(), surveyID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Summaries: summaries})
}

// Backends handles GET /api/backends.
func (h *SurveyHandler) Backends(w http.ResponseWriter, r *http.Request) {
	names := h.backends.Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, backendsResponse{Backends: names})
}

func (h *SurveyHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var validationErr *domain.ValidationError
	var shapeErr *domain.SummaryShapeError
	var elementErr *domain.SummaryElementError
	var backendErr *domain.BackendError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.Is(err, domain.ErrSurveyNotFound):
		writeError(w, http.StatusNotFound, "survey_not_found", err.Error())
	case errors.Is(err, domain.ErrSurveyClosed):
		writeError(w, http.StatusConflict, "survey_closed", err.Error())
	case errors.Is(err, domain.ErrNoResponses):
		writeError(w, http.StatusUnprocessableEntity, "no_responses", err.Error())
	case errors.Is(err, domain.ErrNoBackend):
		writeError(w, http.StatusUnprocessableEntity, "no_backend", err.Error())
	case errors.Is(err, domain.ErrBackendNotLoaded):
		writeError(w, http.StatusUnprocessableEntity, "backend_not_loaded", err.Error())
	case errors.As(err, &shapeErr):
		writeError(w, http.StatusBadGateway, "shape_mismatch", shapeErr.Error())
	case errors.As(err, &elementErr):
		writeError(w, http.StatusBadGateway, "type_mismatch", elementErr.Error())
	case errors.As(err, &backendErr):
		writeError(w, http.StatusBadGateway, "backend_error", backendErr.Error())
	default:
		log.Error("surveys handler - request failed", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
