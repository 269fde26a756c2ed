package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/jobctx"
	"github.com/taskloop/taskloop/pkg/telemetry"
)

// Executor is the run/retry state machine for exactly one job. All mutable
// per-job state (attempt counter, current backoff delay) is owned by the
// run loop goroutine; other goroutines may only observe it through
// Attempts() and Finished().
type Executor struct {
	cfg    Config
	job    *core.Job
	scope  *telemetry.Scope
	logger *slog.Logger

	attempts  atomic.Int64
	startOnce sync.Once
	doneOnce  sync.Once
	finished  chan struct{}
}

// New validates the configuration and builds an Executor. It never starts
// the run loop: call Start (asynchronous) or Run (blocking). Only
// *core.ValidationError escapes here; after the loop starts, no error ever
// propagates out of it.
func New(cfg Config) (*Executor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// The correlation id is assigned once and never changes across retries.
	if cfg.Job.ID == "" {
		cfg.Job.ID = uuid.New().String()
	}
	if cfg.Job.Queue == "" {
		cfg.Job.Queue = cfg.Queue
	}

	return &Executor{
		cfg:      cfg,
		job:      cfg.Job,
		scope:    telemetry.NewScope(cfg.Sink, cfg.Queue),
		logger:   cfg.Logger.With("tid", cfg.Job.ID, "queue", cfg.Queue),
		finished: make(chan struct{}),
	}, nil
}

// Start launches the run loop in its own goroutine. Subsequent calls are
// no-ops: at most one loop, and so at most one in-flight attempt, ever
// exists per Executor.
func (e *Executor) Start(ctx context.Context) {
	go e.Run(ctx)
}

// Run executes the run loop on the calling goroutine until the job reaches
// a terminal state (success or fatal) or ctx is cancelled. Calling Run more
// than once is a no-op.
func (e *Executor) Run(ctx context.Context) {
	e.startOnce.Do(func() {
		e.run(ctx)
	})
}

// Attempts returns the number of attempts started so far. Strictly
// monotonic; never reset.
func (e *Executor) Attempts() int {
	return int(e.attempts.Load())
}

// Finished is closed when the run loop exits.
func (e *Executor) Finished() <-chan struct{} {
	return e.finished
}

// CorrelationID returns the job's stable correlation identifier.
func (e *Executor) CorrelationID() string {
	return e.job.ID
}

func (e *Executor) run(ctx context.Context) {
	defer close(e.finished)

	// Correlation scope established once, before attempt 1. Every retry
	// reuses the same context, so logs and metrics emitted from arbitrarily
	// deep call chains inside the task stay attributed to this job.
	ctx = jobctx.WithJob(ctx, e.job)
	ctx = jobctx.WithLogger(ctx, e.logger)

	delay := e.cfg.InitialDelay

	for {
		attempt := e.attempts.Add(1)
		alog := e.logger.With("attempt", attempt, "timeout", e.cfg.Timeout)
		alog.Info("attempt started")

		started := time.Now()
		result, err := e.runTask(ctx)
		// The attempt timer is recorded on every exit path: success, fatal,
		// timeout, or retryable.
		e.scope.Timing("run", time.Since(started))

		outcome := core.Classify(err)
		switch outcome {
		case core.OutcomeSuccess:
			e.scope.Incr("success")
			alog.Info("job succeeded")
			e.finish(result, nil)
			return

		case core.OutcomeFatal:
			e.scope.Incr("fatal")
			alog.Error("job failed fatally", "error", err)
			e.cfg.Reporter.Report(core.EnrichTaskError(err, e.job, e.cfg.Queue))
			// The job is handled, not rescheduled.
			e.finish(nil, err)
			return

		case core.OutcomeTimeout:
			// A timeout is never fatal by itself; it falls through to the
			// retryable path below.
			e.scope.Incr("timeout")
			alog.Warn("attempt timed out", "error", err)
		}

		taskErr := core.EnrichTaskError(err, e.job, e.cfg.Queue)
		alog.Warn("attempt failed, retrying", "error", taskErr, "delay", delay)
		e.scope.Incr("task_error")
		e.cfg.Reporter.Report(taskErr)

		if e.cfg.OnRetry != nil {
			e.cfg.OnRetry(int(attempt), taskErr, delay)
		}

		if !e.sleep(ctx, delay) {
			alog.Warn("run loop stopped before completion", "error", ctx.Err())
			return
		}
		delay = NextDelay(delay, e.cfg.MaxDelay)
	}
}

// sleep waits out the retry delay without blocking other executors. It
// returns false when ctx is cancelled first.
func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish fires the completion callback exactly once per Executor lifetime.
func (e *Executor) finish(result any, err error) {
	e.doneOnce.Do(func() {
		e.cfg.Done(result, err)
	})
}
