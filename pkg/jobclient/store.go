package jobclient

import (
	"context"
	"sync"
	"time"
)

// DefaultCooldown is how long a fetched snapshot is served as-is before the
// store will hit the API again for the same job.
const DefaultCooldown = 2 * time.Second

// Fetcher is the slice of Client the store needs.
type Fetcher interface {
	GetJob(ctx context.Context, jobID string) (*Job, error)
	CreateJob(ctx context.Context, query, personaID string) (*Job, error)
}

// Store caches job snapshots and coalesces fetches. At most one request per
// job id is in flight at a time: concurrent callers share its result. A
// fetch that lands within the cool-down of the previous one is answered from
// cache without touching the API.
type Store struct {
	fetcher  Fetcher
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	jobs     map[string]*snapshot
	inflight map[string]*call
	lastErr  error
}

type snapshot struct {
	job       *Job
	fetchedAt time.Time
}

type call struct {
	done chan struct{}
	job  *Job
	err  error
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithCooldown overrides the cache cool-down window.
func WithCooldown(d time.Duration) StoreOption {
	return func(s *Store) { s.cooldown = d }
}

// withClock pins the store's clock, for tests.
func withClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(fetcher Fetcher, opts ...StoreOption) *Store {
	s := &Store{
		fetcher:  fetcher,
		cooldown: DefaultCooldown,
		now:      time.Now,
		jobs:     make(map[string]*snapshot),
		inflight: make(map[string]*call),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNewJob submits a generation request and caches the created job. Any
// state from a previous job is dropped first, so a failed creation leaves the
// store empty apart from the recorded error.
func (s *Store) CreateNewJob(ctx context.Context, query, personaID string) (*Job, error) {
	s.ClearAll()
	job, err := s.fetcher.CreateJob(ctx, query, personaID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.jobs[job.JobID] = &snapshot{job: copyJob(job), fetchedAt: s.now()}
	return copyJob(job), nil
}

// LastError returns the error recorded by the most recent failed operation,
// or nil after a success or a clear.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Fetch returns the job's current state, consulting the API only when the
// cached snapshot is older than the cool-down. The returned Job is a copy;
// callers may hold it without racing later fetches.
func (s *Store) Fetch(ctx context.Context, jobID string) (*Job, error) {
	s.mu.Lock()
	if snap, ok := s.jobs[jobID]; ok && s.now().Sub(snap.fetchedAt) < s.cooldown {
		job := copyJob(snap.job)
		s.mu.Unlock()
		return job, nil
	}
	if c, ok := s.inflight[jobID]; ok {
		s.mu.Unlock()
		select {
		case <-c.done:
			return copyJob(c.job), c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	s.inflight[jobID] = c
	s.mu.Unlock()

	job, err := s.fetcher.GetJob(ctx, jobID)
	c.job, c.err = job, err

	s.mu.Lock()
	delete(s.inflight, jobID)
	if err == nil {
		// The job and its status land together: a reader never sees a new
		// status with a stale body.
		s.jobs[jobID] = &snapshot{job: copyJob(job), fetchedAt: s.now()}
		s.lastErr = nil
	} else {
		s.lastErr = err
	}
	s.mu.Unlock()

	close(c.done)
	return copyJob(job), err
}

// Loading reports whether a fetch for the job is currently in flight.
func (s *Store) Loading(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[jobID]
	return ok
}

// Snapshot returns the cached state of a job without fetching.
func (s *Store) Snapshot(jobID string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	return copyJob(snap.job), true
}

// Clear drops the cached snapshot for one job, so the next Fetch goes to the
// API regardless of cool-down.
func (s *Store) Clear(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	s.lastErr = nil
}

// ClearAll drops every cached snapshot and the recorded error.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*snapshot)
	s.lastErr = nil
}

func copyJob(j *Job) *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		out.CompletedAt = &t
	}
	out.Updates = append([]JobUpdate(nil), j.Updates...)
	return &out
}
