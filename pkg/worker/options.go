// Package worker provides the Worker job processor for the taskloop package.
package worker

import (
	"log/slog"
	"time"

	"github.com/taskloop/taskloop/pkg/report"
	"github.com/taskloop/taskloop/pkg/security"
	"github.com/taskloop/taskloop/pkg/telemetry"
)

// WorkerOption configures a Worker.
type WorkerOption interface {
	ApplyWorker(*WorkerConfig)
}

type workerOptionFunc func(*WorkerConfig)

func (f workerOptionFunc) ApplyWorker(c *WorkerConfig) { f(c) }

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	Queues          map[string]int // queue name -> concurrency
	PollInterval    time.Duration
	WorkerID        string
	EnableScheduler bool

	// StaleAfter is how long past lock expiry a running job is considered
	// abandoned and returned to pending. Zero disables the janitor.
	StaleAfter time.Duration

	Logger   *slog.Logger
	Reporter report.Reporter
	Sink     telemetry.Sink

	StorageRetry *RetryConfig
	DequeueRetry *RetryConfig
}

// Concurrency sets the concurrency for a queue.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		clamped := security.ClampConcurrency(n)
		for k := range c.Queues {
			c.Queues[k] = clamped
		}
	})
}

// WithScheduler enables the recurring-job scheduler in the worker.
func WithScheduler(enabled bool) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.EnableScheduler = enabled
	})
}

// WorkerQueue adds a queue to process with optional concurrency.
func WorkerQueue(name string, opts ...WorkerOption) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		if c.Queues == nil {
			c.Queues = make(map[string]int)
		}
		c.Queues[name] = 10 // default concurrency
		for _, opt := range opts {
			opt.ApplyWorker(c)
		}
	})
}

// PollInterval sets how often the worker polls storage for new jobs.
func PollInterval(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.PollInterval = d
	})
}

// WithWorkerID overrides the generated worker identity.
func WithWorkerID(id string) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.WorkerID = id
	})
}

// WithLogger sets the worker's structured logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Logger = logger
	})
}

// WithReporter sets the error reporter handed to job executors.
func WithReporter(r report.Reporter) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Reporter = r
	})
}

// WithSink sets the telemetry sink handed to job executors.
func WithSink(s telemetry.Sink) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Sink = s
	})
}

// WithStaleAfter sets the grace period before abandoned locks are released.
func WithStaleAfter(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.StaleAfter = d
	})
}
