package backends

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

const snippetLimit = 80

// ClusterBackend is the in-process summarizer: it splits the responses
// into count contiguous groups and labels each group with its first
// response. Deterministic and dependency-free, so it doubles as the
// default backend and the one tests run against.
type ClusterBackend struct{}

func NewClusterBackend() *ClusterBackend {
	return &ClusterBackend{}
}

func (b *ClusterBackend) Summarize(ctx context.Context, responses []string, count int) ([]domain.Summary, error) {
	if count <= 0 {
		return nil, fmt.Errorf("summary count must be positive, got %d", count)
	}
	summaries := make([]domain.Summary, count)
	size := len(responses) / count
	extra := len(responses) % count
	offset := 0
	for i := 0; i < count; i++ {
		n := size
		if i < extra {
			n++
		}
		group := responses[offset : offset+n]
		offset += n
		if len(group) == 0 {
			summaries[i] = domain.Summary{Text: "(no responses in this group)", Respondents: 0}
			continue
		}
		summaries[i] = domain.Summary{
			Text:        snippet(group[0]),
			Respondents: len(group),
		}
	}
	return summaries, nil
}

func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:snippetLimit]) + "…"
}
