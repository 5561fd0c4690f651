package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	appregistry "github.com/chandra-gummaluru/beamer-plus/internal/app/registry"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/services"
	"github.com/chandra-gummaluru/beamer-plus/internal/plugins/backends"
)

func newTestAPI(t *testing.T) (*chi.Mux, *services.SurveyService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := services.NewLoop()
	go loop.Run(ctx)
	hub := appregistry.NewRegistry()
	backendRegistry := backends.NewRegistry()
	backendRegistry.Register("cluster", backends.NewClusterBackend())
	surveys := services.NewSurveyService(slog.Default(), loop, hub, backendRegistry, domain.DefaultSummaryCount)
	gateway := services.NewAnalysisGateway(slog.Default(), surveys, backendRegistry)
	h := NewSurveyHandler(surveys, gateway, backendRegistry)

	r := chi.NewRouter()
	r.Get("/api/backends", h.Backends)
	r.Route("/api/surveys", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Route("/{surveyID}", func(r chi.Router) {
			r.Post("/responses", h.Respond)
			r.Get("/responses", h.Responses)
			r.Post("/close", h.Close)
			r.Post("/analyze", h.Analyze)
		})
	})
	return r, surveys
}

func doJSON(t *testing.T, mux *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestCreateSurveyEndpoint(t *testing.T) {
	mux, _ := newTestAPI(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/surveys", `{"question":"How was the lecture?","backend":"cluster"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var survey domain.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &survey); err != nil {
		t.Fatal(err)
	}
	if survey.ID == "" || !survey.Active || survey.SummaryCount != domain.DefaultSummaryCount {
		t.Errorf("survey = %+v", survey)
	}
}

func TestCreateSurveyValidation(t *testing.T) {
	mux, _ := newTestAPI(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/surveys", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := decodeError(t, rec); code != "validation_error" {
		t.Errorf("code = %q", code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/surveys", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}
}

func TestRespondAndListEndpoints(t *testing.T) {
	mux, surveys := newTestAPI(t)
	survey, err := surveys.Create(context.Background(), "Q", "cluster", 2)
	if err != nil {
		t.Fatal(err)
	}
	base := "/api/surveys/" + survey.ID

	for i := 1; i <= 3; i++ {
		rec := doJSON(t, mux, http.MethodPost, base+"/responses", fmt.Sprintf(`{"text":"response %d"}`, i))
		if rec.Code != http.StatusOK {
			t.Fatalf("respond %d: status = %d, body = %s", i, rec.Code, rec.Body.String())
		}
		var resp respondResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.Accepted || resp.Total != i {
			t.Errorf("respond %d: %+v", i, resp)
		}
	}

	rec := doJSON(t, mux, http.MethodGet, base+"/responses", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list responsesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 3 || len(list.Responses) != 3 {
		t.Errorf("list = %+v", list)
	}
}

func TestRespondErrorMapping(t *testing.T) {
	mux, surveys := newTestAPI(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/surveys/unknown/responses", `{"text":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown survey: status = %d, want 404", rec.Code)
	}

	survey, err := surveys.Create(context.Background(), "Q", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := surveys.Close(context.Background(), survey.ID); err != nil {
		t.Fatal(err)
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/surveys/"+survey.ID+"/responses", `{"text":"late"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("closed survey: status = %d, want 409", rec.Code)
	}
	if code := decodeError(t, rec); code != "survey_closed" {
		t.Errorf("code = %q", code)
	}
}

func TestCloseEndpoint(t *testing.T) {
	mux, surveys := newTestAPI(t)
	survey, err := surveys.Create(context.Background(), "Q", "", 1)
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/surveys/"+survey.ID+"/close", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	// Idempotent at the HTTP surface too.
	rec = doJSON(t, mux, http.MethodPost, "/api/surveys/"+survey.ID+"/close", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("second close: status = %d, want 204", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	mux, surveys := newTestAPI(t)
	ctx := context.Background()
	survey, err := surveys.Create(ctx, "Q", "cluster", 2)
	if err != nil {
		t.Fatal(err)
	}

	// No responses yet.
	rec := doJSON(t, mux, http.MethodPost, "/api/surveys/"+survey.ID+"/analyze", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty survey: status = %d, want 422", rec.Code)
	}
	if code := decodeError(t, rec); code != "no_responses" {
		t.Errorf("code = %q", code)
	}

	for _, text := range []string{"a", "b", "c", "d"} {
		if _, err := surveys.Respond(ctx, survey.ID, text); err != nil {
			t.Fatal(err)
		}
	}
	rec = doJSON(t, mux, http.MethodPost, "/api/surveys/"+survey.ID+"/analyze", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Summaries) != 2 {
		t.Errorf("summaries = %+v", resp.Summaries)
	}
}

func TestBackendsEndpoint(t *testing.T) {
	mux, _ := newTestAPI(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/backends", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp backendsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Backends) != 1 || resp.Backends[0] != "cluster" {
		t.Errorf("backends = %v", resp.Backends)
	}
}
