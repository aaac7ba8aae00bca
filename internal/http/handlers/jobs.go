package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JetJadeja/celebxplain/internal/domain"
	"github.com/JetJadeja/celebxplain/internal/storage"
)

type createJobRequest struct {
	Query   string `json:"query"`
	Persona string `json:"persona"`
}

type jobUpdateJSON struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type jobJSON struct {
	JobID       string          `json:"job_id"`
	Status      string          `json:"status"`
	Query       string          `json:"query"`
	PersonaID   string          `json:"persona_id"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ResultURL   string          `json:"result_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	Updates     []jobUpdateJSON `json:"updates,omitempty"`
}

func toJobJSON(job *domain.Job, updates []domain.JobUpdate) jobJSON {
	out := jobJSON{
		JobID:       job.ID,
		Status:      string(job.Status),
		Query:       job.Query,
		PersonaID:   job.PersonaID,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		ResultURL:   job.ResultURL,
		Error:       job.Error,
	}
	for _, u := range updates {
		out.Updates = append(out.Updates, jobUpdateJSON{
			ID:        u.ID,
			JobID:     u.JobID,
			Status:    u.Status,
			Message:   u.Message,
			CreatedAt: u.CreatedAt,
		})
	}
	return out
}

// CreateJob validates the request, records the job and hands it to the queue.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		a.error(w, http.StatusBadRequest, "query required")
		return
	}
	if req.Persona == "" {
		a.error(w, http.StatusBadRequest, "persona required")
		return
	}
	persona, ok := a.Catalog.Get(req.Persona)
	if !ok {
		a.error(w, http.StatusBadRequest, "unknown persona")
		return
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		PersonaID: persona.ID,
		Query:     req.Query,
		Status:    domain.JobStatusPending,
	}
	ctx := r.Context()
	if err := a.Jobs.Create(ctx, job); err != nil {
		a.Logger.Error().Err(err).Msg("create job failed")
		a.error(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	update := &domain.JobUpdate{
		JobID:   job.ID,
		Status:  string(domain.JobStatusPending),
		Message: fmt.Sprintf("Job created for %s explaining %s", persona.Name, job.Query),
	}
	if err := a.Jobs.AppendUpdate(ctx, update); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("record initial update failed")
	}
	if err := a.Queue.EnqueueProcessJob(job.ID, persona.ID, job.Query); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("enqueue job failed")
		msg := "failed to queue job for processing"
		if uerr := a.Jobs.UpdateStatus(ctx, job.ID, domain.JobStatusError, nil, &msg); uerr != nil {
			a.Logger.Error().Err(uerr).Str("job_id", job.ID).Msg("mark job errored failed")
		}
		a.error(w, http.StatusInternalServerError, msg)
		return
	}

	a.json(w, http.StatusCreated, toJobJSON(job, []domain.JobUpdate{*update}))
}

// GetJob returns the job plus its chronological stage updates.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "job_id required")
		return
	}
	ctx := r.Context()
	job, err := a.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	updates, err := a.Jobs.ListUpdates(ctx, jobID)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job updates failed")
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	a.json(w, http.StatusOK, toJobJSON(job, updates))
}

// JobVideo serves the completed artifact: a redirect when the store hands out
// direct URLs, a stream otherwise.
func (a *App) JobVideo(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	ctx := r.Context()
	job, err := a.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job failed")
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "result not ready")
		return
	}
	if strings.HasPrefix(job.ResultURL, "http://") || strings.HasPrefix(job.ResultURL, "https://") {
		http.Redirect(w, r, job.ResultURL, http.StatusFound)
		return
	}
	rc, err := a.Store.Open(ctx, storage.ResultKey(jobID))
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("open artifact failed")
		a.error(w, http.StatusNotFound, "result missing")
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "video/mp4")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
