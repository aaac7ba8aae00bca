package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/JetJadeja/celebxplain/internal/assemble"
	"github.com/JetJadeja/celebxplain/internal/domain"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/providers/lipsync"
	"github.com/JetJadeja/celebxplain/internal/providers/script"
	"github.com/JetJadeja/celebxplain/internal/providers/speech"
	"github.com/JetJadeja/celebxplain/internal/providers/visuals"
	"github.com/JetJadeja/celebxplain/internal/queue"
	"github.com/JetJadeja/celebxplain/internal/storage"
)

// Lipsyncer renders a talking-head video from a face video and an audio track.
type Lipsyncer interface {
	Render(ctx context.Context, req lipsync.Request) (string, error)
	Download(ctx context.Context, url, destPath string) error
}

// VideoComposer builds the final artifact out of the avatar footage and plan.
type VideoComposer interface {
	Compose(ctx context.Context, opts assemble.Options) error
}

// Processor runs a queued generation job through the full pipeline:
// script, speech, avatar plus visuals in parallel, then final assembly.
type Processor struct {
	jobs       domain.JobRepository
	catalog    domain.PersonaCatalog
	script     script.Generator
	speech     speech.Synthesizer
	lipsync    Lipsyncer
	visuals    visuals.Planner
	composer   VideoComposer
	store      storage.Store
	apiBaseURL string
	workDir    string
	logger     infra.Logger
}

// ProcessorOptions wires the pipeline dependencies.
type ProcessorOptions struct {
	Jobs       domain.JobRepository
	Catalog    domain.PersonaCatalog
	Script     script.Generator
	Speech     speech.Synthesizer
	Lipsync    Lipsyncer
	Visuals    visuals.Planner
	Composer   VideoComposer
	Store      storage.Store
	APIBaseURL string
	WorkDir    string
	Logger     infra.Logger
}

func NewProcessor(opts ProcessorOptions) *Processor {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Processor{
		jobs:       opts.Jobs,
		catalog:    opts.Catalog,
		script:     opts.Script,
		speech:     opts.Speech,
		lipsync:    opts.Lipsync,
		visuals:    opts.Visuals,
		composer:   opts.Composer,
		store:      opts.Store,
		apiBaseURL: strings.TrimRight(opts.APIBaseURL, "/"),
		workDir:    workDir,
		logger:     opts.Logger,
	}
}

// ProcessTask is the asynq handler for queue.TypeProcessJob.
func (p *Processor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ProcessJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode task payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Process(ctx, payload); err != nil {
		p.logger.Error().Err(err).Str("job_id", payload.JobID).Msg("worker: job failed")
		// The job row is already marked terminal; a retry would re-run the
		// whole pipeline against a dead job.
		return fmt.Errorf("process job %s: %v: %w", payload.JobID, err, asynq.SkipRetry)
	}
	return nil
}

// Process runs the pipeline for one job and records stage updates as it goes.
func (p *Processor) Process(ctx context.Context, payload queue.ProcessJobPayload) error {
	jobID := payload.JobID
	persona, ok := p.catalog.Get(payload.PersonaID)
	if !ok {
		return p.fail(ctx, jobID, fmt.Errorf("unknown persona %q", payload.PersonaID))
	}

	if err := p.jobs.UpdateStatus(ctx, jobID, domain.JobStatusProcessing, nil, nil); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}
	p.update(ctx, jobID, domain.JobStatusProcessing, "Generating script")

	scriptRes, err := p.script.Generate(ctx, script.Request{
		Query:       payload.Query,
		PersonaName: persona.Name,
		StylePrompt: persona.StylePrompt,
	})
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("generate script: %w", err))
	}

	p.update(ctx, jobID, domain.JobStatusProcessing, "Generating speech")
	speechRes, err := p.speech.Synthesize(ctx, scriptRes.Text, persona.VoiceID)
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("synthesize speech: %w", err))
	}

	jobDir := filepath.Join(p.workDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("create work dir: %w", err))
	}
	defer func() {
		_ = os.RemoveAll(jobDir)
	}()

	audioPath := filepath.Join(jobDir, "speech."+speechRes.Format)
	if err := os.WriteFile(audioPath, speechRes.Audio, 0o644); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("write audio: %w", err))
	}
	audioKey := storage.SpeechKey(jobID, speechRes.Format)
	if err := p.store.PutFile(ctx, audioKey, audioPath, "audio/mpeg"); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("store audio: %w", err))
	}
	audioURL, err := p.artifactURL(ctx, audioKey)
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("resolve audio url: %w", err))
	}

	p.update(ctx, jobID, domain.JobStatusProcessing, "Animating avatar and planning visuals")
	avatarPath := filepath.Join(jobDir, "avatar.mp4")
	var (
		wg         sync.WaitGroup
		lipsyncErr error
		plan       *visuals.Plan
		planErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		url, err := p.lipsync.Render(ctx, lipsync.Request{
			SourceVideoURL: persona.VideoPath,
			AudioURL:       audioURL,
		})
		if err != nil {
			lipsyncErr = err
			return
		}
		lipsyncErr = p.lipsync.Download(ctx, url, avatarPath)
	}()
	go func() {
		defer wg.Done()
		plan, planErr = p.visuals.Plan(ctx, scriptRes.Text, speechRes.Timings)
	}()
	wg.Wait()
	if lipsyncErr != nil {
		return p.fail(ctx, jobID, fmt.Errorf("render avatar: %w", lipsyncErr))
	}
	if planErr != nil {
		// Visuals are an enhancement; the avatar track alone is still a
		// deliverable video.
		p.logger.Warn().Err(planErr).Str("job_id", jobID).Msg("worker: visuals plan failed, composing without captions")
		plan = nil
	}

	p.update(ctx, jobID, domain.JobStatusProcessing, "Rendering final video")
	outputPath := filepath.Join(jobDir, "final_video.mp4")
	if err := p.composer.Compose(ctx, assemble.Options{
		AvatarPath: avatarPath,
		Plan:       plan,
		Duration:   narrationDuration(speechRes.Timings),
		OutputPath: outputPath,
	}); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("compose video: %w", err))
	}

	resultKey := storage.ResultKey(jobID)
	if err := p.store.PutFile(ctx, resultKey, outputPath, "video/mp4"); err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("store result: %w", err))
	}
	resultURL, err := p.store.URL(ctx, resultKey)
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("resolve result url: %w", err))
	}
	if resultURL == "" {
		resultURL = p.apiBaseURL + "/api/jobs/" + jobID + "/video"
	}

	if err := p.jobs.UpdateStatus(ctx, jobID, domain.JobStatusCompleted, &resultURL, nil); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	p.update(ctx, jobID, domain.JobStatusCompleted, "Video ready")
	p.logger.Info().Str("job_id", jobID).Str("result_url", resultURL).Msg("worker: job completed")
	return nil
}

// fail marks the job terminally errored before surfacing the cause.
func (p *Processor) fail(ctx context.Context, jobID string, cause error) error {
	msg := cause.Error()
	if err := p.jobs.UpdateStatus(ctx, jobID, domain.JobStatusError, nil, &msg); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: mark job errored failed")
	}
	p.update(ctx, jobID, domain.JobStatusError, "Processing failed: "+msg)
	return cause
}

// update appends a stage entry; failures here are logged, not fatal.
func (p *Processor) update(ctx context.Context, jobID string, status domain.JobStatus, message string) {
	err := p.jobs.AppendUpdate(ctx, &domain.JobUpdate{
		JobID:   jobID,
		Status:  string(status),
		Message: message,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: record update failed")
	}
}

// artifactURL prefers a store-issued URL and falls back to the API's
// artifact route for stores without direct addressing.
func (p *Processor) artifactURL(ctx context.Context, key string) (string, error) {
	url, err := p.store.URL(ctx, key)
	if err != nil {
		return "", err
	}
	if url != "" {
		return url, nil
	}
	return p.apiBaseURL + "/api/artifacts/" + key, nil
}

func narrationDuration(timings []speech.WordTiming) float64 {
	if len(timings) == 0 {
		return 0
	}
	return timings[len(timings)-1].End
}
