package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/executor"
	"github.com/taskloop/taskloop/pkg/internal/handler"
	"github.com/taskloop/taskloop/pkg/queue"
	"github.com/taskloop/taskloop/pkg/security"
)

// Worker processes jobs from the queue. Each dequeued job gets its own
// executor that owns the attempt/retry loop; the worker's job is dequeue,
// lock upkeep, and persisting the terminal outcome.
type Worker struct {
	queue  *queue.Queue
	config WorkerConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewWorker creates a new worker for the given queue.
func NewWorker(q *queue.Queue, opts ...WorkerOption) *Worker {
	config := WorkerConfig{
		PollInterval: 100 * time.Millisecond,
		WorkerID:     uuid.New().String(),
		StaleAfter:   5 * time.Minute,
	}

	for _, opt := range opts {
		opt.ApplyWorker(&config)
	}

	if config.Queues == nil {
		config.Queues = map[string]int{"default": 10}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StorageRetry == nil {
		defaultCfg := DefaultRetryConfig()
		config.StorageRetry = &defaultCfg
	}
	if config.DequeueRetry == nil {
		// Longer backoff for dequeue to avoid hammering the DB during outages
		dequeueCfg := RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    500 * time.Millisecond,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFraction:    0.2,
		}
		config.DequeueRetry = &dequeueCfg
	}

	return &Worker{
		queue:  q,
		config: config,
		logger: config.Logger.With("worker_id", config.WorkerID),
	}
}

// WorkerID returns the worker's identity used for job locks.
func (w *Worker) WorkerID() string {
	return w.config.WorkerID
}

// Start begins processing jobs. Blocks until context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	queues := make([]string, 0, len(w.config.Queues))
	for q := range w.config.Queues {
		queues = append(queues, q)
	}

	totalConcurrency := 0
	for _, c := range w.config.Queues {
		totalConcurrency += c
	}

	jobsChan := make(chan *core.Job, totalConcurrency)

	if w.config.EnableScheduler {
		go w.runScheduler(ctx)
	}
	if w.config.StaleAfter > 0 {
		go w.runJanitor(ctx)
	}

	for i := 0; i < totalConcurrency; i++ {
		w.wg.Add(1)
		go w.processLoop(ctx, jobsChan)
	}

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(jobsChan)
			w.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			job, err := w.dequeueWithRetry(ctx, queues)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					w.logger.Error("failed to dequeue after retries", "error", err)
				}
				continue
			}
			if job != nil {
				select {
				case jobsChan <- job:
				case <-ctx.Done():
				}
			}
		}
	}
}

// dequeueWithRetry attempts to dequeue a job with exponential backoff on failure.
func (w *Worker) dequeueWithRetry(ctx context.Context, queues []string) (*core.Job, error) {
	var job *core.Job
	err := retryWithBackoff(ctx, *w.config.DequeueRetry, func() error {
		var dequeueErr error
		job, dequeueErr = w.queue.Storage().Dequeue(ctx, queues, w.config.WorkerID)
		return dequeueErr
	})
	return job, err
}

func (w *Worker) processLoop(ctx context.Context, jobs <-chan *core.Job) {
	defer w.wg.Done()

	for job := range jobs {
		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job *core.Job) {
	startTime := time.Now()

	h, ok := w.queue.GetHandler(job.Type)
	if !ok {
		err := fmt.Errorf("taskloop: no handler for %q", job.Type)
		w.logger.Error("no handler for job", "job_id", job.ID, "type", job.Type)
		w.markFatalWithRetry(ctx, job.ID, err.Error())
		w.queue.CallFatalHooks(ctx, job, err)
		w.queue.Emit(&core.JobFatal{Job: job, Error: err, Timestamp: time.Now()})
		return
	}

	w.queue.CallStartHooks(ctx, job)
	w.queue.Emit(&core.JobStarted{Job: job, Timestamp: startTime})

	// Heartbeat keeps the lock alive while the executor's retry loop runs.
	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go w.runHeartbeat(heartbeatCtx, job)

	var ex *executor.Executor
	done := func(result any, err error) {
		cancelHeartbeat()

		if err != nil {
			w.markFatalWithRetry(ctx, job.ID, security.SanitizeErrorMessage(err.Error()))
			w.queue.CallFatalHooks(ctx, job, err)
			w.queue.Emit(&core.JobFatal{Job: job, Attempts: ex.Attempts(), Error: err, Timestamp: time.Now()})
			return
		}

		if completeErr := w.completeWithRetry(ctx, job.ID); completeErr != nil {
			w.logger.Error("failed to complete job after retries", "job_id", job.ID, "error", completeErr)
			return
		}
		w.queue.CallSucceededHooks(ctx, job)
		w.queue.Emit(&core.JobSucceeded{Job: job, Attempts: ex.Attempts(), Duration: time.Since(startTime), Timestamp: time.Now()})
	}

	ex, err := executor.New(executor.Config{
		Job:   job,
		Queue: job.Queue,
		Task: func(ctx context.Context, j *core.Job) (any, error) {
			return w.executeHandler(ctx, j, h)
		},
		Done:          done,
		Logger:        w.logger,
		Reporter:      w.config.Reporter,
		Sink:          w.config.Sink,
		Timeout:       h.Timeout,
		InitialDelay:  h.RetryDelay,
		MaxDelay:      h.MaxRetryDelay,
		OnRetry: func(attempt int, err error, next time.Duration) {
			w.queue.CallRetryHooks(ctx, job, attempt, err)
			w.queue.Emit(&core.JobRetrying{Job: job, Attempt: attempt, Error: err, NextDelay: next, Timestamp: time.Now()})
		},
	})
	if err != nil {
		w.logger.Error("failed to build executor", "job_id", job.ID, "error", err)
		w.markFatalWithRetry(ctx, job.ID, security.SanitizeErrorMessage(err.Error()))
		return
	}

	// Blocks until the job reaches a terminal state or ctx is cancelled.
	// On cancellation the completion callback never fires; the lock goes
	// stale and the janitor returns the job to pending.
	ex.Run(ctx)
}

func (w *Worker) executeHandler(ctx context.Context, job *core.Job, h *handler.Handler) (any, error) {
	return h.Execute(ctx, job.Payload)
}

// completeWithRetry marks a job complete with retry on transient failures.
func (w *Worker) completeWithRetry(ctx context.Context, jobID string) error {
	return retryWithBackoff(ctx, *w.config.StorageRetry, func() error {
		return w.queue.Storage().Complete(ctx, jobID, w.config.WorkerID)
	})
}

// markFatalWithRetry records a fatal outcome with retry on transient failures.
func (w *Worker) markFatalWithRetry(ctx context.Context, jobID string, errMsg string) {
	err := retryWithBackoff(ctx, *w.config.StorageRetry, func() error {
		return w.queue.Storage().MarkFatal(ctx, jobID, w.config.WorkerID, errMsg)
	})
	if err != nil {
		w.logger.Error("failed to mark job fatal after retries", "job_id", jobID, "error", err)
	}
}

// runHeartbeat periodically extends the job lock during execution.
// This prevents long-running jobs from being reclaimed as stale.
func (w *Worker) runHeartbeat(ctx context.Context, job *core.Job) {
	// Lock duration is 5 minutes; 2 minutes leaves headroom for retries.
	ticker := time.NewTicker(2 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := retryWithBackoff(ctx, *w.config.StorageRetry, func() error {
				return w.queue.Storage().Heartbeat(ctx, job.ID, w.config.WorkerID)
			})
			if err != nil {
				w.logger.Warn("heartbeat failed after retries", "job_id", job.ID, "error", err)
			} else {
				w.logger.Debug("heartbeat sent", "job_id", job.ID)
			}
		}
	}
}

// runJanitor periodically returns abandoned running jobs to pending.
func (w *Worker) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := w.queue.Storage().ReleaseStaleLocks(ctx, w.config.StaleAfter)
			if err != nil {
				w.logger.Error("failed to release stale locks", "error", err)
				continue
			}
			if released > 0 {
				w.logger.Warn("released stale job locks", "count", released)
			}
		}
	}
}

func (w *Worker) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lastRun := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduled := w.queue.GetScheduledJobs()
			if scheduled == nil {
				continue
			}

			now := time.Now()
			for name, sj := range scheduled {
				nextRun := sj.Schedule.Next(lastRun[name])
				if now.After(nextRun) || now.Equal(nextRun) {
					_, err := w.queue.Enqueue(ctx, sj.Name, sj.Args,
						queue.QueueOpt(sj.Options.Queue),
					)
					if err != nil {
						w.logger.Error("failed to enqueue scheduled job", "name", name, "error", err)
					} else {
						lastRun[name] = now
					}
				}
			}
		}
	}
}
