package taskloop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_EndToEnd(t *testing.T) {
	q := New(NewMemoryStorage())

	var processed atomic.Value
	q.Register("send-email", func(ctx context.Context, to string) error {
		processed.Store(to)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(q,
		WithWorkerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		PollInterval(5*time.Millisecond),
	)
	go func() { _ = w.Start(ctx) }()

	id, err := q.Enqueue(ctx, "send-email", "user@example.com", QueueOpt("emails.send"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		job, err := q.Storage().GetJob(context.Background(), id)
		return err == nil && job != nil && job.Status == StatusSucceeded
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "user@example.com", processed.Load())
}

func TestFacade_QueueNewWorkerFactory(t *testing.T) {
	q := New(NewMemoryStorage())

	// init() wires the factory; NewWorker on the queue must not panic.
	starter := q.NewWorker(PollInterval(5 * time.Millisecond))
	require.NotNil(t, starter)

	_, ok := starter.(*Worker)
	assert.True(t, ok)
}

func TestFacade_NewExecutorDirect(t *testing.T) {
	var doneResult any
	var doneErr error
	done := make(chan struct{})

	ex, err := NewExecutor(ExecutorConfig{
		Job:   &Job{Type: "inline"},
		Queue: "inline.tasks",
		Task: func(ctx context.Context, job *Job) (any, error) {
			return "done", nil
		},
		Done: func(result any, err error) {
			doneResult, doneErr = result, err
			close(done)
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NotEmpty(t, ex.CorrelationID())

	ex.Run(context.Background())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
	assert.Equal(t, "done", doneResult)
	assert.NoError(t, doneErr)
}

func TestFacade_ErrorHelpers(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, IsFatal(Fatal(base)))
	assert.False(t, IsFatal(base))

	assert.Equal(t, OutcomeSuccess, Classify(nil))
	assert.Equal(t, OutcomeFatal, Classify(Fatal(base)))
	assert.Equal(t, OutcomeRetryable, Classify(base))

	assert.NoError(t, ValidateQueueName("emails.send.batch"))
	assert.Error(t, ValidateQueueName("no spaces allowed"))
}

func TestFacade_ScheduleHelpers(t *testing.T) {
	from := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(time.Hour), Every(time.Hour).Next(from))
	assert.Equal(t, time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC), Cron("0 * * * *").Next(from))
}
