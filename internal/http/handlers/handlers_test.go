package handlers

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

// fakeJobRepo is an in-memory domain.JobRepository for handler tests.
type fakeJobRepo struct {
	jobs      map[string]*domain.Job
	updates   map[string][]domain.JobUpdate
	createErr error
	nextID    int64
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:    make(map[string]*domain.Job),
		updates: make(map[string][]domain.JobUpdate),
	}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	job.CreatedAt = time.Now()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, resultURL, errMsg *string) error {
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	if resultURL != nil {
		job.ResultURL = *resultURL
	}
	if errMsg != nil {
		job.Error = *errMsg
	}
	if status.Terminal() {
		now := time.Now()
		job.CompletedAt = &now
	}
	return nil
}

func (f *fakeJobRepo) AppendUpdate(ctx context.Context, update *domain.JobUpdate) error {
	f.nextID++
	update.ID = f.nextID
	update.CreatedAt = time.Now()
	f.updates[update.JobID] = append(f.updates[update.JobID], *update)
	return nil
}

func (f *fakeJobRepo) ListUpdates(ctx context.Context, jobID string) ([]domain.JobUpdate, error) {
	return f.updates[jobID], nil
}

// fakeCatalog holds a fixed persona set.
type fakeCatalog struct {
	personas []domain.Persona
}

func (f *fakeCatalog) List() []domain.Persona { return f.personas }

func (f *fakeCatalog) Get(id string) (domain.Persona, bool) {
	for _, p := range f.personas {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Persona{}, false
}

// fakeEnqueuer records enqueued jobs and can be set to fail.
type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (f *fakeEnqueuer) EnqueueProcessJob(jobID, personaID, query string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, jobID)
	return nil
}

// fakeStore serves a fixed artifact body.
type fakeStore struct {
	body    string
	openErr error
}

func (f *fakeStore) PutFile(ctx context.Context, key, path, contentType string) error { return nil }

func (f *fakeStore) URL(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

var errBoom = errors.New("boom")

func newTestApp(repo *fakeJobRepo, cat *fakeCatalog, q *fakeEnqueuer, store *fakeStore) *App {
	return NewApp(repo, cat, q, store, zerolog.Nop())
}
