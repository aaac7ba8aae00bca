package visuals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JetJadeja/celebxplain/internal/domain"
	"github.com/JetJadeja/celebxplain/internal/providers/speech"
)

const defaultTimeout = 30 * time.Second

const defaultModel = "gpt-4o-mini"

// Options configures the chat-completion backed planner.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIPlanner asks a chat model to segment the narration and attach a
// caption and search keywords to each segment. The model is pinned to JSON
// output via response_format.
type OpenAIPlanner struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIPlanner(opts Options) (*OpenAIPlanner, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenAIPlanner{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (p *OpenAIPlanner) Plan(ctx context.Context, script string, timings []speech.WordTiming) (*Plan, error) {
	payload := chatRequest{
		Model:          p.model,
		Temperature:    0.4,
		ResponseFormat: &chatFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(script, timings)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode plan request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build plan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: visuals plan: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: visuals plan status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode plan response: %v", domain.ErrProviderFailure, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: visuals plan returned no choices", domain.ErrProviderFailure)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: parse plan payload: %v", domain.ErrProviderFailure, err)
	}
	if len(plan.Segments) == 0 {
		return nil, fmt.Errorf("%w: visuals plan is empty", domain.ErrProviderFailure)
	}
	return &plan, nil
}

const systemPrompt = "You plan b-roll for a narrated explainer video. " +
	"Respond with valid JSON of the form {\"segments\":[{\"text\":...,\"starts_at\":...,\"ends_at\":...,\"caption\":...,\"keywords\":[...]}]}. " +
	"Segments must cover the narration in order without overlaps."

func buildUserPrompt(script string, timings []speech.WordTiming) string {
	var b strings.Builder
	b.WriteString("Narration:\n")
	b.WriteString(script)
	if len(timings) > 0 {
		b.WriteString("\n\nWord timings (word start end, seconds):\n")
		for _, t := range timings {
			fmt.Fprintf(&b, "%s %.2f %.2f\n", t.Word, t.Start, t.End)
		}
	}
	b.WriteString("\nSplit the narration into 3 to 6 segments and suggest a caption and stock-search keywords for each.")
	return b.String()
}

var _ Planner = (*OpenAIPlanner)(nil)
