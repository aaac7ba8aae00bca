package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeProcessJob is the task type for one end-to-end generation job.
const TypeProcessJob = "job:process"

// ProcessJobPayload is the wire payload between the API and the worker.
type ProcessJobPayload struct {
	JobID     string `json:"job_id"`
	PersonaID string `json:"persona_id"`
	Query     string `json:"query"`
}

// Enqueuer dispatches generation jobs onto the task queue.
type Enqueuer interface {
	EnqueueProcessJob(jobID, personaID, query string) error
}

// Client wraps an asynq.Client for the API side.
type Client struct {
	inner *asynq.Client
}

// NewClient builds a Redis-backed queue client.
func NewClient(redisAddr, redisPassword string) *Client {
	return &Client{inner: asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})}
}

// EnqueueProcessJob submits one generation job. Retries and timeout cover the
// long-running external generation services.
func (c *Client) EnqueueProcessJob(jobID, personaID, query string) error {
	payload, err := json.Marshal(ProcessJobPayload{JobID: jobID, PersonaID: personaID, Query: query})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeProcessJob, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(20*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if _, err := c.inner.Enqueue(task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeProcessJob, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.inner.Close()
}

var _ Enqueuer = (*Client)(nil)
