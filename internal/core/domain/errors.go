package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrSurveyClosed     = errors.New("survey is closed")
	ErrNoResponses      = errors.New("survey has no responses")
	ErrNoBackend        = errors.New("survey has no analysis backend bound")
	ErrBackendNotLoaded = errors.New("analysis backend not loaded")
)

// ValidationError rejects a malformed create or analyze request, for
// example a backend name that is not resolvable at creation time.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// SummaryShapeError reports a backend result whose length does not
// match the survey's requested summary count.
type SummaryShapeError struct {
	Want int
	Got  int
}

func (e *SummaryShapeError) Error() string {
	return fmt.Sprintf("backend returned %d summaries, want %d", e.Got, e.Want)
}

// SummaryElementError reports a malformed element in a backend result,
// naming the offending index.
type SummaryElementError struct {
	Index  int
	Reason string
}

func (e *SummaryElementError) Error() string {
	return fmt.Sprintf("summary element %d: %s", e.Index, e.Reason)
}

// BackendError wraps a failure inside the analysis backend itself. It
// is always caught at the gateway boundary and never crashes the core.
type BackendError struct {
	Backend string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("analysis backend %q failed: %s", e.Backend, e.Message)
}
