package domain

import (
	"encoding/json"
	"time"
)

// DefaultSummaryCount is used when a survey is created without an
// explicit number of requested summaries.
const DefaultSummaryCount = 3

// PresentationState is the authoritative description of what is
// currently on screen. One instance exists per server process; it is
// owned by the state store and mutated only on the event core.
type PresentationState struct {
	// LoadedPresentation holds the payload of the last
	// presentation_loaded event verbatim. Last write wins, never cleared.
	LoadedPresentation json.RawMessage
	// CurrentSlide is the index broadcast by the last slide_change.
	CurrentSlide int
	// Annotations maps a slide index to the last annotation payload
	// received for that slide. A cleared slide is absent from the map.
	Annotations map[int]json.RawMessage
	// ActiveSurvey is the payload of the survey prompt currently shown
	// to viewers, or nil when no survey is on screen.
	ActiveSurvey json.RawMessage
}

// Survey is a live poll created by the presenter. It accepts responses
// while Active and is never deleted during the process lifetime, so
// responses stay queryable after close.
type Survey struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
	Backend      string    `json:"backend,omitempty"`
	SummaryCount int       `json:"summary_count"`
}

// SurveyResponse is an append-only record. Insertion order is the
// canonical ordering; duplicates are kept as-is.
type SurveyResponse struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Summary is one element of an analysis result: a summary sentence and
// the number of respondents it covers. Results are transient and never
// stored; every analyze call re-invokes the backend.
type Summary struct {
	Text        string `json:"text"`
	Respondents int    `json:"respondents"`
}
