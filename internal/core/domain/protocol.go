package domain

import "encoding/json"

// Room names. Membership in a room decides which broadcasts a
// connection receives; role is nothing more than the room it joined.
const (
	RoomPresenter = "presenter"
	RoomViewer    = "viewer"
)

// SurveyRoom names the per-survey room that response-page clients join
// to learn when the survey closes.
func SurveyRoom(surveyID string) string {
	return "survey:" + surveyID
}

// Inbound event types.
const (
	TypeJoinPresenter      = "join_presenter"
	TypeJoinViewer         = "join_viewer"
	TypeJoinSurvey         = "join_survey"
	TypePresentationLoaded = "presentation_loaded"
	TypeSlideChange        = "slide_change"
	TypeAnnotationUpdate   = "annotation_update"
	TypeClearAnnotations   = "clear_annotations"
	TypeVideoAction        = "video_action"
	TypeModelInteraction   = "model_interaction"
	TypeSurveyShow         = "survey_show"
	TypeSurveyClose        = "survey_close"
)

// Outbound-only event types.
const (
	TypeJoined         = "joined"
	TypeStateSync      = "state_sync"
	TypeSurveyResponse = "survey_response"
	TypeSurveyClosed   = "survey_closed"
)

// Event is a single WebSocket frame. Data is kept opaque; the router
// decodes it only for the event types whose payload it must inspect.
type Event struct {
	Type string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SlideChangeData carries the target slide index.
type SlideChangeData struct {
	Slide int `json:"slide"`
}

// AnnotationData addresses an annotation update or clear. A nil Slide
// means "the slide currently on screen".
type AnnotationData struct {
	Slide      *int            `json:"slide,omitempty"`
	Annotation json.RawMessage `json:"annotation,omitempty"`
}

// SurveyRef identifies a survey inside join_survey and survey_close
// payloads. The ID is optional on survey_close.
type SurveyRef struct {
	SurveyID string `json:"survey_id,omitempty"`
}

// JoinedData acknowledges a join_* event back to its sender.
type JoinedData struct {
	Room string `json:"room"`
}

// StateSync is the reconciliation snapshot delivered to exactly one
// newly joined viewer. It reflects the cumulative effect of all
// state-bearing events processed so far; history is never replayed.
type StateSync struct {
	Presentation json.RawMessage         `json:"presentation,omitempty"`
	CurrentSlide int                     `json:"current_slide"`
	Annotations  map[int]json.RawMessage `json:"annotations"`
	ActiveSurvey json.RawMessage         `json:"active_survey,omitempty"`
}

// SurveyResponseData notifies the presenter room of a newly accepted
// response together with the running total.
type SurveyResponseData struct {
	SurveyID string `json:"survey_id"`
	Response string `json:"response"`
	Total    int    `json:"total"`
}

// SurveyClosedData tells a survey room to stop submitting.
type SurveyClosedData struct {
	SurveyID string `json:"survey_id"`
}

// NewEvent marshals data into an Event frame. A marshal failure is a
// programming error on the sending side, so the payload is dropped and
// the bare event is returned.
func NewEvent(typ string, data any) Event {
	if data == nil {
		return Event{Type: typ}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{Type: typ}
	}
	return Event{Type: typ, Data: raw}
}
