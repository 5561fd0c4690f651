package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/chandra-gummaluru/beamer-plus/internal/config"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
)

const systemPrompt = "You are a concise survey analyst. You group survey responses " +
	"into thematic clusters and write one clear, factual summary sentence per group. " +
	"Return ONLY a JSON array of [summary, count] pairs, nothing else."

// OpenAIBackend summarizes responses through the chat completions API.
// Parsing the model's free-form output into (text, count) pairs is this
// backend's own problem; the gateway only ever sees the typed result.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIBackend(cfg config.OpenAIConfig) *OpenAIBackend {
	return &OpenAIBackend{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  http.DefaultClient,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *OpenAIBackend) Summarize(ctx context.Context, responses []string, count int) ([]domain.Summary, error) {
	var sb strings.Builder
	for _, r := range responses {
		sb.WriteString("- ")
		sb.WriteString(r)
		sb.WriteString("\n")
	}
	prompt := fmt.Sprintf(
		"Group these %d survey responses into exactly %d distinct thematic clusters. "+
			"For each cluster write ONE neutral summary sentence under 280 characters and "+
			"include the number of responses in the cluster. "+
			"Return ONLY a JSON array of [summary, count] pairs.\n\nSurvey responses:\n%s",
		len(responses), count, sb.String(),
	)

	body, err := json.Marshal(chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1200,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}
	return parseSummaries(parsed.Choices[0].Message.Content)
}

// parseSummaries extracts the JSON array of [summary, count] pairs from
// the model output, tolerating code fences and surrounding prose.
func parseSummaries(content string) ([]domain.Summary, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &pairs); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	summaries := make([]domain.Summary, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("pair %d has %d elements", i, len(pair))
		}
		var text string
		if err := json.Unmarshal(pair[0], &text); err != nil {
			return nil, fmt.Errorf("pair %d: summary is not a string", i)
		}
		var respondents int
		if err := json.Unmarshal(pair[1], &respondents); err != nil {
			return nil, fmt.Errorf("pair %d: count is not an integer", i)
		}
		summaries = append(summaries, domain.Summary{Text: text, Respondents: respondents})
	}
	return summaries, nil
}
