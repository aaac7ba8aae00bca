package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/queue"
)

// NewServer builds the asynq consumer bound to the generation task type.
func NewServer(cfg *infra.Config, processor *Processor, logger infra.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("task_type", task.Type()).Msg("worker: task handler error")
			}),
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeProcessJob, processor.ProcessTask)
	return srv, mux
}
