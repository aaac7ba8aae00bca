package jobclient

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

// Job statuses reported by the API.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusError      = "error"
)

// IsTerminalStatus reports whether a job in this status will never change
// again.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	}
	return false
}

// Job is the API's view of one generation job.
type Job struct {
	JobID       string      `json:"job_id"`
	Status      string      `json:"status"`
	Query       string      `json:"query"`
	PersonaID   string      `json:"persona_id"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	ResultURL   string      `json:"result_url,omitempty"`
	Error       string      `json:"error,omitempty"`
	Updates     []JobUpdate `json:"updates,omitempty"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return IsTerminalStatus(j.Status)
}

// JobUpdate is one progress entry in a job's history.
type JobUpdate struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Persona is a selectable narrator identity.
type Persona struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

const defaultTimeout = 15 * time.Second

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client is a typed client for the job API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the API at baseURL (e.g.
// "http://localhost:8080").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateJob submits a new generation job.
func (c *Client) CreateJob(ctx context.Context, query, personaID string) (*Job, error) {
	body, err := json.Marshal(map[string]string{"query": query, "persona": personaID})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var job Job
	if err := c.do(req, http.StatusCreated, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches a job with its progress updates. A missing job is reported
// as ErrJobNotFound.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var job Job
	if err := c.do(req, http.StatusOK, &job); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Personas lists the selectable personas.
func (c *Client) Personas(ctx context.Context) ([]Persona, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/personas", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var personas []Persona
	if err := c.do(req, http.StatusOK, &personas); err != nil {
		return nil, err
	}
	return personas, nil
}

// VideoURL is the address of a completed job's rendered video.
func (c *Client) VideoURL(jobID string) string {
	return c.baseURL + "/api/jobs/" + jobID + "/video"
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != wantStatus {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
