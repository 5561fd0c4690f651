package services

import (
	"encoding/json"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

// StateStore owns the single PresentationState for this process. It is
// an explicitly constructed object, not a package global, so tests get
// one store per instance. All methods must run on the event loop; the
// store itself carries no lock.
type StateStore struct {
	state domain.PresentationState
}

func NewStateStore() *StateStore {
	return &StateStore{
		state: domain.PresentationState{
			Annotations: make(map[int]json.RawMessage),
		},
	}
}

// SetPresentation records the last presentation_loaded payload.
// Last write wins; there is no clear.
func (s *StateStore) SetPresentation(payload json.RawMessage) {
	s.state.LoadedPresentation = payload
}

// SetSlide records the slide index of a slide_change event.
func (s *StateStore) SetSlide(slide int) {
	s.state.CurrentSlide = slide
}

// SetAnnotation replaces the annotation for the target slide. A nil
// slide targets the slide currently on screen, resolved now, not at
// delivery time.
func (s *StateStore) SetAnnotation(slide *int, annotation json.RawMessage) {
	s.state.Annotations[s.targetSlide(slide)] = annotation
}

// ClearAnnotation removes the target slide's entry entirely. Absence,
// not an empty value, is what a late joiner must observe.
func (s *StateStore) ClearAnnotation(slide *int) {
	delete(s.state.Annotations, s.targetSlide(slide))
}

// ShowSurvey records the survey prompt payload shown to viewers.
func (s *StateStore) ShowSurvey(payload json.RawMessage) {
	s.state.ActiveSurvey = payload
}

// HideSurvey clears the active survey prompt on survey_close.
func (s *StateStore) HideSurvey() {
	s.state.ActiveSurvey = nil
}

// CurrentSlide returns the slide currently on screen.
func (s *StateStore) CurrentSlide() int {
	return s.state.CurrentSlide
}

// Snapshot returns a reconciliation snapshot for one late-joining
// viewer. The annotation map is copied so later mutations cannot leak
// into a frame already handed to the transport.
func (s *StateStore) Snapshot() domain.StateSync {
	annotations := make(map[int]json.RawMessage, len(s.state.Annotations))
	for slide, ann := range s.state.Annotations {
		annotations[slide] = ann
	}
	return domain.StateSync{
		Presentation: s.state.LoadedPresentation,
		CurrentSlide: s.state.CurrentSlide,
		Annotations:  annotations,
		ActiveSurvey: s.state.ActiveSurvey,
	}
}

func (s *StateStore) targetSlide(slide *int) int {
	if slide != nil {
		return *slide
	}
	return s.state.CurrentSlide
}
