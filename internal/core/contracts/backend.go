package contracts

import (
	"context"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

// AnalysisBackend summarizes survey responses into count groups. How a
// backend does that (in-process clustering, a remote model API, a
// subprocess) is its own concern; the gateway only validates the shape
// of what comes back. A backend may block for seconds.
type AnalysisBackend interface {
	Summarize(ctx context.Context, responses []string, count int) ([]domain.Summary, error)
}

// BackendRegistry resolves analysis backends by name. Backends are
// registered by an external loader; the core never inspects how a
// backend was obtained.
type BackendRegistry interface {
	Resolve(name string) (AnalysisBackend, bool)
	Names() []string
}
