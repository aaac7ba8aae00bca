package domain

import "context"

// JobRepository defines persistence for jobs and their stage updates.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, resultURL, errMsg *string) error
	AppendUpdate(ctx context.Context, update *JobUpdate) error
	ListUpdates(ctx context.Context, jobID string) ([]JobUpdate, error)
}

// PersonaCatalog provides read-only access to the persona reference data.
type PersonaCatalog interface {
	List() []Persona
	Get(id string) (Persona, bool)
}
