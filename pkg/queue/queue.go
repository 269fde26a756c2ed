package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/internal/handler"
	"github.com/taskloop/taskloop/pkg/schedule"
	"github.com/taskloop/taskloop/pkg/security"
)

// Queue manages job registration, enqueueing, and processing.
type Queue struct {
	storage       core.Storage
	handlers      map[string]*handler.Handler
	scheduledJobs map[string]*ScheduledJob
	mu            sync.RWMutex

	// Hooks
	onStart     []func(context.Context, *core.Job)
	onSucceeded []func(context.Context, *core.Job)
	onFatal     []func(context.Context, *core.Job, error)
	onRetry     []func(context.Context, *core.Job, int, error)

	// Event stream
	eventSubs []chan core.Event
}

// ScheduledJob holds configuration for a recurring job.
type ScheduledJob struct {
	Name     string
	Schedule schedule.Schedule
	Args     any
	Options  *Options
}

// New creates a new Queue with the given storage backend.
func New(s core.Storage) *Queue {
	return &Queue{
		storage:  s,
		handlers: make(map[string]*handler.Handler),
	}
}

// Register registers a job handler function.
// The function must have signature func(ctx context.Context, args T) error
// or func(ctx context.Context, args T) (R, error); the context argument is
// optional. Job type names must be alphanumeric (starting with a letter).
func (q *Queue) Register(name string, fn any, opts ...Option) {
	if err := security.ValidateJobTypeName(name); err != nil {
		panic(fmt.Sprintf("taskloop: invalid handler name %q: %v", name, err))
	}

	h, err := handler.NewHandler(fn)
	if err != nil {
		panic(fmt.Sprintf("taskloop: handler for %q: %v", name, err))
	}

	// Apply registration options (e.g. Timeout, RetryDelay)
	if len(opts) > 0 {
		o := NewOptions()
		for _, opt := range opts {
			opt.Apply(o)
		}
		h.Timeout = o.Timeout
		h.RetryDelay = o.RetryDelay
		h.MaxRetryDelay = o.MaxRetryDelay
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// HasHandler checks if a handler is registered.
func (q *Queue) HasHandler(name string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.handlers[name]
	return ok
}

// GetHandler returns a handler by name.
func (q *Queue) GetHandler(name string) (*handler.Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[name]
	return h, ok
}

// Enqueue adds a job to the queue and returns its correlation id.
func (q *Queue) Enqueue(ctx context.Context, name string, args any, opts ...Option) (string, error) {
	q.mu.RLock()
	_, ok := q.handlers[name]
	q.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("taskloop: no handler registered for %q", name)
	}

	options := NewOptions()
	for _, opt := range opts {
		opt.Apply(options)
	}

	if err := security.ValidateQueueName(options.Queue); err != nil {
		return "", err
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("taskloop: failed to marshal args: %w", err)
	}
	if len(payload) > security.MaxJobPayloadSize {
		return "", core.ErrJobPayloadTooLarge
	}

	job := &core.Job{
		ID:      uuid.New().String(),
		Type:    name,
		Payload: payload,
		Queue:   options.Queue,
		Status:  core.StatusPending,
	}

	if options.Delay > 0 {
		runAt := time.Now().Add(options.Delay)
		job.RunAt = &runAt
	}
	if options.RunAt != nil {
		job.RunAt = options.RunAt
	}

	if err := q.storage.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("taskloop: failed to enqueue: %w", err)
	}

	return job.ID, nil
}

// Schedule registers a recurring job.
func (q *Queue) Schedule(name string, sched schedule.Schedule, opts ...Option) {
	options := NewOptions()
	for _, opt := range opts {
		opt.Apply(options)
	}

	q.mu.Lock()
	if q.scheduledJobs == nil {
		q.scheduledJobs = make(map[string]*ScheduledJob)
	}
	q.scheduledJobs[name] = &ScheduledJob{
		Name:     name,
		Schedule: sched,
		Options:  options,
	}
	q.mu.Unlock()
}

// GetScheduledJobs returns the scheduled jobs map (for worker scheduler).
func (q *Queue) GetScheduledJobs() map[string]*ScheduledJob {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.scheduledJobs
}

// Storage returns the underlying storage.
func (q *Queue) Storage() core.Storage {
	return q.storage
}

// OnJobStart registers a callback for when a job starts.
func (q *Queue) OnJobStart(fn func(context.Context, *core.Job)) {
	q.mu.Lock()
	q.onStart = append(q.onStart, fn)
	q.mu.Unlock()
}

// OnJobSucceeded registers a callback for when a job completes successfully.
func (q *Queue) OnJobSucceeded(fn func(context.Context, *core.Job)) {
	q.mu.Lock()
	q.onSucceeded = append(q.onSucceeded, fn)
	q.mu.Unlock()
}

// OnJobFatal registers a callback for when a job ends on the fatal path.
func (q *Queue) OnJobFatal(fn func(context.Context, *core.Job, error)) {
	q.mu.Lock()
	q.onFatal = append(q.onFatal, fn)
	q.mu.Unlock()
}

// OnRetry registers a callback for when a job attempt is retried.
func (q *Queue) OnRetry(fn func(context.Context, *core.Job, int, error)) {
	q.mu.Lock()
	q.onRetry = append(q.onRetry, fn)
	q.mu.Unlock()
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	q.mu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed — callers must stop reading before calling
// Unsubscribe. After it returns, no further events reach the channel.
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers. Events are dropped rather than
// blocking on slow consumers.
func (q *Queue) Emit(e core.Event) {
	q.mu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// CallStartHooks calls all registered start hooks.
func (q *Queue) CallStartHooks(ctx context.Context, job *core.Job) {
	q.mu.RLock()
	hooks := make([]func(context.Context, *core.Job), len(q.onStart))
	copy(hooks, q.onStart)
	q.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job)
	}
}

// CallSucceededHooks calls all registered success hooks.
func (q *Queue) CallSucceededHooks(ctx context.Context, job *core.Job) {
	q.mu.RLock()
	hooks := make([]func(context.Context, *core.Job), len(q.onSucceeded))
	copy(hooks, q.onSucceeded)
	q.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job)
	}
}

// CallFatalHooks calls all registered fatal hooks.
func (q *Queue) CallFatalHooks(ctx context.Context, job *core.Job, err error) {
	q.mu.RLock()
	hooks := make([]func(context.Context, *core.Job, error), len(q.onFatal))
	copy(hooks, q.onFatal)
	q.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job, err)
	}
}

// CallRetryHooks calls all registered retry hooks.
func (q *Queue) CallRetryHooks(ctx context.Context, job *core.Job, attempt int, err error) {
	q.mu.RLock()
	hooks := make([]func(context.Context, *core.Job, int, error), len(q.onRetry))
	copy(hooks, q.onRetry)
	q.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx, job, attempt, err)
	}
}

// WorkerFactory is set by the root package to create workers.
// This avoids import cycles between queue and worker packages.
var WorkerFactory func(q *Queue, opts ...any) core.Starter

// NewWorker creates a new worker for this queue.
// Options should be worker.WorkerOption values.
func (q *Queue) NewWorker(opts ...any) core.Starter {
	if WorkerFactory == nil {
		panic("taskloop: WorkerFactory not initialized - import github.com/taskloop/taskloop to initialize")
	}
	return WorkerFactory(q, opts...)
}
