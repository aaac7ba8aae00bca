package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether no further status transition can occur.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusError:
		return true
	default:
		return false
	}
}

// Job encapsulates one end-to-end generation request and its lifecycle record.
type Job struct {
	ID          string
	PersonaID   string
	Query       string
	Status      JobStatus
	ResultURL   string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// JobUpdate is one append-only stage-progress record belonging to a job.
// Updates are produced exclusively by the worker pipeline and consumed
// read-only; insertion order is chronological order.
type JobUpdate struct {
	ID        int64
	JobID     string
	Status    string
	Message   string
	CreatedAt time.Time
}
