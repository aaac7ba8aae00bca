package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, persona_id, query, status, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING created_at;
`
	row := r.pool.QueryRow(ctx, query, job.ID, job.PersonaID, job.Query, job.Status)
	if err := row.Scan(&job.CreatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, persona_id, query, status, COALESCE(result_url, ''), COALESCE(error, ''), created_at, completed_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.PersonaID,
		&job.Query,
		&job.Status,
		&job.ResultURL,
		&job.Error,
		&job.CreatedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job's status. A terminal status also stamps
// completed_at; result_url and error are only written when provided.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, resultURL, errMsg *string) error {
	query := `
UPDATE jobs
SET status = $2,
    result_url = COALESCE($3, result_url),
    error = COALESCE($4, error),
    completed_at = CASE WHEN $5 THEN NOW() ELSE completed_at END
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, jobID, status, resultURL, errMsg, status.Terminal())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendUpdate records one stage-progress entry. Rows are append-only.
func (r *JobRepositoryPG) AppendUpdate(ctx context.Context, update *domain.JobUpdate) error {
	query := `
INSERT INTO job_updates (job_id, status, message, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, created_at;
`
	row := r.pool.QueryRow(ctx, query, update.JobID, update.Status, update.Message)
	if err := row.Scan(&update.ID, &update.CreatedAt); err != nil {
		return fmt.Errorf("insert job update: %w", err)
	}
	return nil
}

// ListUpdates returns a job's updates in chronological order.
func (r *JobRepositoryPG) ListUpdates(ctx context.Context, jobID string) ([]domain.JobUpdate, error) {
	query := `
SELECT id, job_id, status, message, created_at
FROM job_updates
WHERE job_id = $1
ORDER BY id ASC;
`
	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list job updates: %w", err)
	}
	defer rows.Close()

	var updates []domain.JobUpdate
	for rows.Next() {
		var u domain.JobUpdate
		if err := rows.Scan(&u.ID, &u.JobID, &u.Status, &u.Message, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
