// Package throttle gates batch enqueue loops on queue backlog so a bulk
// reconciliation run cannot bury the workers.
package throttle

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// BacklogFunc reports the current backlog of a queue
type BacklogFunc func(ctx context.Context, queue string) (int64, error)

// Throttle blocks producers while a queue's backlog is above a ceiling
type Throttle struct {
	backlog      BacklogFunc
	maxBacklog   int64
	pollInterval time.Duration
	logger       ectologger.Logger
}

// New creates a throttle. maxBacklog <= 0 disables throttling entirely.
func New(backlog BacklogFunc, maxBacklog int64, pollInterval time.Duration, logger ectologger.Logger) *Throttle {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Throttle{
		backlog:      backlog,
		maxBacklog:   maxBacklog,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// MaybeWait blocks until the queue backlog drops below the ceiling or the
// context is cancelled. Backlog probe failures are logged and treated as an
// open gate so a broken metrics path never stalls a run.
func (t *Throttle) MaybeWait(ctx context.Context, queue string) error {
	if t.maxBacklog <= 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "throttle.Throttle.MaybeWait")
	defer span.End()

	waited := false
	for {
		backlog, err := t.backlog(ctx, queue)
		if err != nil {
			t.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"queue": queue}).Warn("Failed to read queue backlog, not throttling")
			return nil
		}
		if backlog < t.maxBacklog {
			if waited {
				t.logger.WithContext(ctx).WithFields(map[string]any{
					"queue":   queue,
					"backlog": backlog,
				}).Debug("Queue backlog drained, resuming")
			}
			return nil
		}

		if !waited {
			t.logger.WithContext(ctx).WithFields(map[string]any{
				"queue":       queue,
				"backlog":     backlog,
				"max_backlog": t.maxBacklog,
			}).Info("Queue backlog over ceiling, pausing enqueue")
			waited = true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.pollInterval):
		}
	}
}
