package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Options configures the speech service client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to the speech synthesis service over REST.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type synthesizeRequest struct {
	Text           string `json:"text"`
	VoiceID        string `json:"voice_id"`
	IncludeTimings bool   `json:"include_timings"`
	OutputFormat   string `json:"output_format"`
}

type synthesizeResponse struct {
	AudioBase64 string       `json:"audio_base64"`
	Format      string       `json:"format"`
	Timings     []WordTiming `json:"timings"`
	Error       string       `json:"error"`
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("speech base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, apiKey: strings.TrimSpace(opts.APIKey), client: client}, nil
}

func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	payload := synthesizeRequest{
		Text:           text,
		VoiceID:        voiceID,
		IncludeTimings: true,
		OutputFormat:   "mp3",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode synthesize request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", &buf)
	if err != nil {
		return nil, fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: speech request: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode speech response: %v", domain.ErrProviderFailure, err)
	}
	if resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: speech service: %s", domain.ErrProviderFailure, msg)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio payload: %v", domain.ErrProviderFailure, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: speech service returned no audio", domain.ErrProviderFailure)
	}
	format := out.Format
	if format == "" {
		format = "mp3"
	}
	return &Result{Audio: audio, Format: format, Timings: out.Timings}, nil
}

var _ Synthesizer = (*Client)(nil)
