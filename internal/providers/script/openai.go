package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const openAIProviderName = "openai"

const openAIDefaultTimeout = 30 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures the chat-completion backed generator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Generator
	OnFallback func(reason string, err error)
}

// OpenAIGenerator writes the monologue with a chat model, styled by the
// persona's prompt. Every failure path degrades to the fallback generator.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Generator
	onFallback func(reason string, err error)
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Script, error) {
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.7,
		Messages: []openAIMessage{
			{Role: "system", Content: buildSystemPrompt(req)},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.useFallback(ctx, req, "encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return o.useFallback(ctx, req, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.useFallback(ctx, req, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.useFallback(ctx, req, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.useFallback(ctx, req, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return o.useFallback(ctx, req, "empty_choices", errors.New("no choices"))
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return o.useFallback(ctx, req, "empty_response", errors.New("empty response"))
	}
	return &Script{Text: text, Provider: openAIProviderName}, nil
}

func (o *OpenAIGenerator) useFallback(ctx context.Context, req Request, reason string, cause error) (*Script, error) {
	if o.onFallback != nil {
		o.onFallback(reason, cause)
	}
	fb := o.fallback
	if fb == nil {
		fb = NewStaticGenerator()
	}
	res, err := fb.Generate(ctx, req)
	if res != nil && res.Provider == "" {
		res.Provider = staticProviderName
	}
	return res, err
}

func buildSystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You write short spoken monologues for a talking-head explainer video. ")
	if req.PersonaName != "" {
		fmt.Fprintf(&b, "You are writing in the voice of %s. ", req.PersonaName)
	}
	if req.StylePrompt != "" {
		b.WriteString(req.StylePrompt)
		b.WriteString(" ")
	}
	b.WriteString("Keep it between 120 and 180 words. Plain prose only: no stage directions, no headings, no lists.")
	return b.String()
}

func buildUserPrompt(req Request) string {
	return fmt.Sprintf("Explain the following topic to a curious layperson: %s", req.Query)
}

var _ Generator = (*OpenAIGenerator)(nil)
