package jobclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the gap between successive polls of one job.
const DefaultPollInterval = 5 * time.Second

// Poller drives repeated fetches of jobs until they reach a terminal state.
// Each poll schedules the next one only after the fetch finishes, so slow
// responses never stack requests. Stopping a job invalidates its generation
// token: a poll already in flight sees the stale token and goes quiet
// instead of rescheduling.
type Poller struct {
	store    *Store
	interval time.Duration
	onUpdate func(*Job)
	logger   zerolog.Logger

	mu     sync.Mutex
	gens   map[string]uint64
	timers map[string]*time.Timer
	closed bool
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithLogger attaches a logger for poll failures.
func WithLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// WithOnUpdate registers a callback invoked after every successful poll,
// including the final terminal one.
func WithOnUpdate(fn func(*Job)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

func NewPoller(store *Store, opts ...PollerOption) *Poller {
	p := &Poller{
		store:    store,
		interval: DefaultPollInterval,
		logger:   zerolog.Nop(),
		gens:     make(map[string]uint64),
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling a job immediately. Calling Start again for the same
// job restarts its chain; the superseded chain cancels itself.
func (p *Poller) Start(jobID string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.gens[jobID]++
	gen := p.gens[jobID]
	if t, ok := p.timers[jobID]; ok {
		t.Stop()
		delete(p.timers, jobID)
	}
	p.mu.Unlock()

	go p.poll(jobID, gen)
}

// Stop halts polling for one job. Safe to call for jobs never started.
func (p *Poller) Stop(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gens[jobID]++
	if t, ok := p.timers[jobID]; ok {
		t.Stop()
		delete(p.timers, jobID)
	}
}

// Close halts every chain. The poller is unusable afterwards.
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	for id := range p.gens {
		p.gens[id]++
	}
}

// Polling reports whether a job currently has an active chain scheduled.
func (p *Poller) Polling(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.timers[jobID]
	return ok
}

func (p *Poller) poll(jobID string, gen uint64) {
	job, err := p.store.Fetch(context.Background(), jobID)

	if p.stale(jobID, gen) {
		return
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		// Nothing to wait for.
		p.logger.Warn().Str("job_id", jobID).Msg("poll: job not found, halting")
		p.forget(jobID)
		return
	case err != nil:
		// Transient by assumption: keep the chain alive.
		p.logger.Warn().Err(err).Str("job_id", jobID).Msg("poll: fetch failed, will retry")
	default:
		if p.onUpdate != nil {
			p.onUpdate(job)
		}
		if job.Terminal() {
			p.forget(jobID)
			return
		}
	}

	p.schedule(jobID, gen)
}

func (p *Poller) schedule(jobID string, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.gens[jobID] != gen {
		return
	}
	p.timers[jobID] = time.AfterFunc(p.interval, func() {
		p.mu.Lock()
		delete(p.timers, jobID)
		stale := p.closed || p.gens[jobID] != gen
		p.mu.Unlock()
		if stale {
			return
		}
		p.poll(jobID, gen)
	})
}

func (p *Poller) stale(jobID string, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed || p.gens[jobID] != gen
}

func (p *Poller) forget(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[jobID]; ok {
		t.Stop()
		delete(p.timers, jobID)
	}
	delete(p.gens, jobID)
}
