package bot

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

// Request is the structured reading of a mention: what to explain and who
// should explain it.
type Request struct {
	Topic     string
	Celebrity string
}

// Parser turns free-form mention text into a Request.
type Parser interface {
	Parse(ctx context.Context, text string) (*Request, error)
}

var (
	// ErrNoTopic means the mention carried no explainable topic.
	ErrNoTopic = errors.New("no topic in mention")
	// ErrNoCelebrity means no celebrity was named to do the explaining.
	ErrNoCelebrity = errors.New("no celebrity in mention")
)

const parserDefaultModel = "gpt-4o-mini"

const parserDefaultTimeout = 30 * time.Second

// OpenAIParserOptions configures the chat-model mention parser.
type OpenAIParserOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIParser extracts the topic and celebrity from a mention with a chat
// model in JSON mode. The model is told never to invent a celebrity that was
// not named.
type OpenAIParser struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIParser(opts OpenAIParserOptions) (*OpenAIParser, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = parserDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: parserDefaultTimeout}
	}
	return &OpenAIParser{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

type parserChatRequest struct {
	Model          string          `json:"model"`
	Messages       []parserMessage `json:"messages"`
	ResponseFormat parserFormat    `json:"response_format"`
}

type parserFormat struct {
	Type string `json:"type"`
}

type parserMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type parserChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type parsedMention struct {
	Topic     string `json:"topic"`
	Celebrity string `json:"celebrity"`
}

const parserSystemPrompt = `You analyse tweets that ask for an explainer video.
Extract two fields and answer with a JSON object {"topic": string|null, "celebrity": string|null}:
1. "topic": the subject or question the user wants explained, concisely.
2. "celebrity": the full name of the person asked to do the explaining.
If no celebrity is clearly named, return null for "celebrity". Never infer one.`

func (p *OpenAIParser) Parse(ctx context.Context, text string) (*Request, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTopic
	}
	payload := parserChatRequest{
		Model:          p.model,
		ResponseFormat: parserFormat{Type: "json_object"},
		Messages: []parserMessage{
			{Role: "system", Content: parserSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Here's the tweet: %q", text)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parse mention: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("parse mention: status %d", resp.StatusCode)
	}
	var out parserChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("parse mention: no choices")
	}
	var parsed parsedMention
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	topic := strings.TrimSpace(parsed.Topic)
	if topic == "" {
		return nil, ErrNoTopic
	}
	celebrity := strings.TrimSpace(parsed.Celebrity)
	if celebrity == "" {
		return nil, ErrNoCelebrity
	}
	return &Request{Topic: topic, Celebrity: celebrity}, nil
}

var _ Parser = (*OpenAIParser)(nil)
