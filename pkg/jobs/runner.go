package jobs

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	laurelcontext "github.com/Ramsey-B/laurel/pkg/context"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Runner validates jobs and routes them to their executors. The same runner
// backs both the queue consumer and the synchronous fallback path, so a job
// behaves identically whichever way it arrives.
type Runner struct {
	executors  map[Kind]Executor
	dispatcher Dispatcher
	queue      string
	logger     ectologger.Logger
	validate   *validator.Validate
}

// NewRunner creates a runner. dispatcher may be nil, in which case follow-up
// jobs run inline instead of being re-enqueued.
func NewRunner(dispatcher Dispatcher, queue string, logger ectologger.Logger) *Runner {
	return &Runner{
		executors:  make(map[Kind]Executor),
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		validate:   validator.New(),
	}
}

// Register attaches an executor for a job kind
func (r *Runner) Register(kind Kind, executor Executor) {
	r.executors[kind] = executor
}

// Execute runs a single job. On success, a follow-up job returned by the
// executor is dispatched to the runner's queue, or run inline when no
// dispatcher is configured.
func (r *Runner) Execute(ctx context.Context, job *Job) error {
	ctx, span := tracing.StartSpan(ctx, "jobs.Runner.Execute")
	defer span.End()

	ctx = laurelcontext.SetJobID(ctx, job.ID)
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":   job.ID,
		"job_kind": job.Kind,
		"run_id":   laurelcontext.GetRunID(ctx),
	})

	payload, err := payloadFor(job)
	if err != nil {
		log.WithError(err).Error("Job payload missing or malformed")
		return err
	}
	if err := r.validate.Struct(payload); err != nil {
		log.WithError(err).Error("Job payload failed validation")
		return fmt.Errorf("invalid %s payload: %w", job.Kind, err)
	}

	executor, ok := r.executors[job.Kind]
	if !ok {
		err := fmt.Errorf("no executor registered for job kind %q", job.Kind)
		log.Error(err.Error())
		return err
	}

	next, err := executor.Execute(ctx, job)
	if err != nil {
		log.WithError(err).Error("Job execution failed")
		return err
	}
	if next == nil {
		return nil
	}

	if r.dispatcher != nil {
		if err := r.dispatcher.Dispatch(ctx, r.queue, next); err != nil {
			log.WithError(err).WithFields(map[string]any{"next_kind": next.Kind}).Error("Failed to dispatch follow-up job")
			return err
		}
		log.WithFields(map[string]any{"next_kind": next.Kind}).Debug("Dispatched follow-up job")
		return nil
	}

	return r.Execute(ctx, next)
}
