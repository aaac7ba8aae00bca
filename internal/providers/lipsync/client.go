package lipsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

// Job states reported by the lip-sync service.
const (
	stateQueued     = "queued"
	stateProcessing = "processing"
	stateFinished   = "finished"
	stateError      = "error"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 10 * time.Minute
	defaultFunction     = "sieve/portrait-avatar"
)

// Options configures the lip-sync service client.
type Options struct {
	BaseURL      string
	APIKey       string
	Function     string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Client submits avatar jobs to the lip-sync service and polls them to
// completion. The service is asynchronous: a push returns a job id, and the
// rendered video URL appears on the job once it finishes.
type Client struct {
	baseURL      string
	apiKey       string
	function     string
	client       *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Request names the source face video and the driving audio.
type Request struct {
	SourceVideoURL string
	AudioURL       string
}

type pushRequest struct {
	Function string         `json:"function"`
	Inputs   map[string]any `json:"inputs"`
}

type pushResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type jobResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Error   string `json:"error"`
	Outputs []struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"outputs"`
}

func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("lipsync base url is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("lipsync api key is required")
	}
	function := opts.Function
	if function == "" {
		function = defaultFunction
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(opts.APIKey),
		function:     function,
		client:       client,
		pollInterval: interval,
		pollTimeout:  timeout,
	}, nil
}

// Render submits the job and blocks until the service reports a terminal
// state, returning the URL of the rendered avatar video.
func (c *Client) Render(ctx context.Context, req Request) (string, error) {
	jobID, err := c.push(ctx, req)
	if err != nil {
		return "", err
	}
	return c.await(ctx, jobID)
}

func (c *Client) push(ctx context.Context, req Request) (string, error) {
	payload := pushRequest{
		Function: c.function,
		Inputs: map[string]any{
			"source_video":  map[string]string{"url": req.SourceVideoURL},
			"driving_audio": map[string]string{"url": req.AudioURL},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode push request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push", &buf)
	if err != nil {
		return "", fmt.Errorf("build push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: lipsync push: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode push response: %v", domain.ErrProviderFailure, err)
	}
	if resp.StatusCode >= 300 || out.ID == "" {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: lipsync push rejected: %s", domain.ErrProviderFailure, msg)
	}
	return out.ID, nil
}

func (c *Client) await(ctx context.Context, jobID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		job, err := c.getJob(ctx, jobID)
		if err != nil {
			return "", err
		}
		switch job.Status {
		case stateFinished:
			if len(job.Outputs) == 0 || job.Outputs[0].Data.URL == "" {
				return "", fmt.Errorf("%w: lipsync job %s finished without output", domain.ErrProviderFailure, jobID)
			}
			return job.Outputs[0].Data.URL, nil
		case stateError:
			msg := job.Error
			if msg == "" {
				msg = "unknown failure"
			}
			return "", fmt.Errorf("%w: lipsync job %s failed: %s", domain.ErrProviderFailure, jobID, msg)
		case stateQueued, stateProcessing, "":
			// keep polling
		default:
			return "", fmt.Errorf("%w: lipsync job %s in unknown state %q", domain.ErrProviderFailure, jobID, job.Status)
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: lipsync job %s: %v", domain.ErrProviderFailure, jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) getJob(ctx context.Context, jobID string) (*jobResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build job request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: lipsync poll: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: lipsync poll status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode job response: %v", domain.ErrProviderFailure, err)
	}
	return &out, nil
}

// Download fetches a rendered artifact to a local path for assembly.
func (c *Client) Download(ctx context.Context, url, destPath string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: download artifact: %v", domain.ErrProviderFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: download artifact status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write artifact file: %w", err)
	}
	return nil
}
