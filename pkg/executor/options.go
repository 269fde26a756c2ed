package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop/pkg/config"
	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/report"
	"github.com/taskloop/taskloop/pkg/security"
	"github.com/taskloop/taskloop/pkg/telemetry"
)

// Task is the business logic run against the job payload. The context
// carries the job's correlation scope (see pkg/jobctx); the same context is
// reused for every attempt.
type Task func(ctx context.Context, job *core.Job) (any, error)

// Done is the completion callback. It is invoked exactly once per Executor
// lifetime: with the task result on success, or with the fatal error when
// the task declines further retries.
type Done func(result any, err error)

// Config configures an Executor. Job, Queue, Task, Done, and Logger are
// required; everything else has environment-derived defaults (pkg/config).
type Config struct {
	// Job is the unit of work. An empty Job.ID gets a generated correlation
	// id at construction; the id never changes across retries.
	Job *core.Job

	// Queue is the dot-delimited queue name used for telemetry tag
	// derivation and error enrichment.
	Queue string

	// Task is the work function.
	Task Task

	// Done is the completion callback.
	Done Done

	// Logger is the structured logging sink. Child loggers are derived per
	// job and per attempt.
	Logger *slog.Logger

	// Reporter receives every fatal and retryable error. Defaults to the
	// process-wide reporter (pkg/report).
	Reporter report.Reporter

	// Sink receives counters and timers. Defaults to a no-op sink; forced
	// to no-op when monitoring is globally disabled.
	Sink telemetry.Sink

	// OnRetry, when set, is invoked after each retryable failure with the
	// attempt number, the enriched error, and the delay before the next
	// attempt. Optional; used by the worker to fire queue hooks.
	OnRetry func(attempt int, err error, next time.Duration)

	// Timeout bounds each attempt. Zero means the environment default,
	// which itself defaults to no timeout. Negative is invalid.
	Timeout time.Duration

	// InitialDelay is the delay before the first retry. Zero means the
	// environment default (1ms).
	InitialDelay time.Duration

	// MaxDelay caps backoff growth. Zero means the environment default,
	// which itself defaults to unbounded.
	MaxDelay time.Duration
}

// validate applies environment defaults and checks the construction
// contract. It returns *core.ValidationError on the first violation.
func (c *Config) validate() error {
	if c.Job == nil {
		return core.NewValidationError("job", "is required")
	}
	if c.Task == nil {
		return core.NewValidationError("task", "is required")
	}
	if c.Done == nil {
		return core.NewValidationError("done", "is required")
	}
	if c.Logger == nil {
		return core.NewValidationError("log", "is required")
	}
	if c.Queue == "" {
		return core.NewValidationError("queue", "is required")
	}
	if err := security.ValidateQueueName(c.Queue); err != nil {
		return core.NewValidationError("queue", err.Error())
	}
	if c.Timeout < 0 {
		return core.NewValidationError("timeout", "must be non-negative")
	}
	if c.InitialDelay < 0 {
		return core.NewValidationError("retryDelay", "must be non-negative")
	}
	if c.MaxDelay < 0 {
		return core.NewValidationError("maxRetryDelay", "must be non-negative")
	}

	defaults, err := config.Load()
	if err != nil {
		return core.NewValidationError("environment", err.Error())
	}

	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = defaults.InitialDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = defaults.MaxDelay
	}

	if c.Reporter == nil {
		c.Reporter = report.Default()
	}
	if c.Sink == nil || defaults.MonitoringDisabled {
		c.Sink = telemetry.NopSink{}
	}

	return nil
}
