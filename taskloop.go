// Package taskloop provides a durable job queue built around a per-job
// run/retry executor: bounded attempt timeouts, exponential backoff on
// retryable failures, an exactly-once completion callback, and structured
// telemetry keyed by dot-delimited queue names.
//
// This is the main package users should import. It re-exports the public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create storage and queue
//	db, _ := gorm.Open(sqlite.Open("jobs.db"), &gorm.Config{})
//	store := taskloop.NewGormStorage(db)
//	store.Migrate(context.Background())
//	q := taskloop.New(store)
//
//	// Register handler
//	q.Register("send-email", func(ctx context.Context, email string) error {
//	    return sendEmail(email)
//	})
//
//	// Enqueue job
//	q.Enqueue(ctx, "send-email", "user@example.com", taskloop.QueueOpt("emails.send"))
//
//	// Start worker
//	w := taskloop.NewWorker(q)
//	w.Start(ctx)
package taskloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/executor"
	"github.com/taskloop/taskloop/pkg/jobctx"
	"github.com/taskloop/taskloop/pkg/queue"
	"github.com/taskloop/taskloop/pkg/report"
	"github.com/taskloop/taskloop/pkg/telemetry"
	"github.com/taskloop/taskloop/pkg/worker"
)

func init() {
	// Register the worker factory to enable queue.NewWorker()
	queue.WorkerFactory = func(q *queue.Queue, opts ...any) core.Starter {
		workerOpts := make([]worker.WorkerOption, 0, len(opts))
		for _, opt := range opts {
			if wo, ok := opt.(worker.WorkerOption); ok {
				workerOpts = append(workerOpts, wo)
			}
		}
		return worker.NewWorker(q, workerOpts...)
	}
}

// Type aliases re-exported from pkg/.
type (
	// Job represents a unit of work to be processed. Its ID doubles as the
	// correlation id (tid) carried through logs, metrics, and reports.
	Job = core.Job

	// JobStatus represents the current state of a job.
	JobStatus = core.JobStatus

	// Storage defines the persistence layer for jobs.
	Storage = core.Storage

	// Event is the interface for all queue events.
	Event = core.Event

	// JobStarted is emitted when a job starts processing.
	JobStarted = core.JobStarted

	// JobSucceeded is emitted when a job completes successfully.
	JobSucceeded = core.JobSucceeded

	// JobFatal is emitted when a job ends on the fatal path.
	JobFatal = core.JobFatal

	// JobRetrying is emitted before each backoff delay.
	JobRetrying = core.JobRetrying

	// Queue manages job registration, enqueueing, and processing.
	Queue = queue.Queue

	// Option modifies Options.
	Option = queue.Option

	// Options holds configuration for job enqueueing and registration.
	Options = queue.Options

	// ScheduledJob holds configuration for a recurring job.
	ScheduledJob = queue.ScheduledJob

	// Worker processes jobs from the queue.
	Worker = worker.Worker

	// WorkerOption configures a Worker.
	WorkerOption = worker.WorkerOption

	// WorkerConfig holds worker configuration.
	WorkerConfig = worker.WorkerConfig

	// Executor is the run/retry state machine for exactly one job.
	Executor = executor.Executor

	// ExecutorConfig configures an Executor.
	ExecutorConfig = executor.Config

	// Task is the work function run by an Executor.
	Task = executor.Task

	// Done is the exactly-once completion callback.
	Done = executor.Done

	// Reporter receives fatal and retryable task errors.
	Reporter = report.Reporter

	// Sink receives counters and timers.
	Sink = telemetry.Sink
)

// Status constants
const (
	StatusPending   = core.StatusPending
	StatusRunning   = core.StatusRunning
	StatusSucceeded = core.StatusSucceeded
	StatusFatal     = core.StatusFatal
)

// New creates a new Queue with the given storage backend.
func New(s Storage) *Queue {
	return queue.New(s)
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return queue.NewOptions()
}

// NewWorker creates a new worker for the given queue.
func NewWorker(q *Queue, opts ...WorkerOption) *Worker {
	return worker.NewWorker(q, opts...)
}

// NewExecutor validates cfg and builds an Executor for a single job. Use it
// directly when you own job acquisition and persistence; the worker wires
// this up automatically for queued jobs.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	return executor.New(cfg)
}

// Job option functions

// QueueOpt sets the dot-delimited queue name.
func QueueOpt(name string) Option {
	return queue.QueueOpt(name)
}

// Delay schedules the job to run after a duration.
func Delay(d time.Duration) Option {
	return queue.Delay(d)
}

// At schedules the job to run at a specific time.
func At(t time.Time) Option {
	return queue.At(t)
}

// Timeout bounds each attempt of the job's task.
func Timeout(d time.Duration) Option {
	return queue.Timeout(d)
}

// RetryDelay sets the initial backoff delay; it doubles per failure.
func RetryDelay(d time.Duration) Option {
	return queue.RetryDelay(d)
}

// MaxRetryDelay caps the doubling backoff delay.
func MaxRetryDelay(d time.Duration) Option {
	return queue.MaxRetryDelay(d)
}

// Worker option functions

// Concurrency sets the concurrency for a queue.
func Concurrency(n int) WorkerOption {
	return worker.Concurrency(n)
}

// WithScheduler enables the recurring-job scheduler in the worker.
func WithScheduler(enabled bool) WorkerOption {
	return worker.WithScheduler(enabled)
}

// WorkerQueue adds a queue to process with optional concurrency.
func WorkerQueue(name string, opts ...WorkerOption) WorkerOption {
	return worker.WorkerQueue(name, opts...)
}

// PollInterval sets how often the worker polls storage for new jobs.
func PollInterval(d time.Duration) WorkerOption {
	return worker.PollInterval(d)
}

// WithSink sets the telemetry sink handed to job executors.
func WithSink(s Sink) WorkerOption {
	return worker.WithSink(s)
}

// WithReporter sets the error reporter handed to job executors.
func WithReporter(r Reporter) WorkerOption {
	return worker.WithReporter(r)
}

// WithWorkerLogger sets the worker's structured logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return worker.WithLogger(logger)
}

// Context helpers

// JobFromContext returns the current Job from context, or nil if not in a
// job handler. Use this to get the job for logging or progress tracking.
func JobFromContext(ctx context.Context) *Job {
	return jobctx.JobFromContext(ctx)
}

// CorrelationID returns the current job's correlation id from context, or
// empty string if not in a job handler.
func CorrelationID(ctx context.Context) string {
	return jobctx.CorrelationID(ctx)
}

// ContextLogger returns the context's logger. Inside a job handler it is
// already tagged with the job's tid and queue.
func ContextLogger(ctx context.Context) *slog.Logger {
	return jobctx.Logger(ctx)
}

// SetReporter replaces the process-wide default error reporter.
func SetReporter(r Reporter) {
	report.SetDefault(r)
}
