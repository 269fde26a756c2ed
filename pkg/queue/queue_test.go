package queue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/schedule"
	"github.com/taskloop/taskloop/pkg/storage"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	return New(storage.NewMemoryStorage())
}

func TestRegister_ValidHandler(t *testing.T) {
	q := newTestQueue(t)

	q.Register("send-email", func(ctx context.Context, to string) error {
		return nil
	})

	assert.True(t, q.HasHandler("send-email"))
	assert.False(t, q.HasHandler("unknown"))
}

func TestRegister_InvalidNamePanics(t *testing.T) {
	q := newTestQueue(t)

	assert.Panics(t, func() {
		q.Register("1bad", func(ctx context.Context, s string) error { return nil })
	})
	assert.Panics(t, func() {
		q.Register("", func(ctx context.Context, s string) error { return nil })
	})
}

func TestRegister_InvalidSignaturePanics(t *testing.T) {
	q := newTestQueue(t)

	assert.Panics(t, func() {
		q.Register("bad", "not a function")
	})
	assert.Panics(t, func() {
		q.Register("bad", func() {})
	})
}

func TestRegister_OptionsStoredOnHandler(t *testing.T) {
	q := newTestQueue(t)

	q.Register("slow", func(ctx context.Context, s string) error { return nil },
		Timeout(30*time.Second),
		RetryDelay(time.Second),
		MaxRetryDelay(time.Minute),
	)

	h, ok := q.GetHandler("slow")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, h.Timeout)
	assert.Equal(t, time.Second, h.RetryDelay)
	assert.Equal(t, time.Minute, h.MaxRetryDelay)
}

func TestEnqueue(t *testing.T) {
	q := newTestQueue(t)
	q.Register("send-email", func(ctx context.Context, to string) error { return nil })

	id, err := q.Enqueue(context.Background(), "send-email", "user@example.com",
		QueueOpt("emails.send"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	job, err := q.Storage().GetJob(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "send-email", job.Type)
	assert.Equal(t, "emails.send", job.Queue)
	assert.Equal(t, core.StatusPending, job.Status)
	assert.JSONEq(t, `"user@example.com"`, string(job.Payload))
}

func TestEnqueue_UnregisteredType(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestEnqueue_InvalidQueueName(t *testing.T) {
	q := newTestQueue(t)
	q.Register("t", func(ctx context.Context, s string) error { return nil })

	_, err := q.Enqueue(context.Background(), "t", "x", QueueOpt("bad queue!"))
	assert.ErrorIs(t, err, core.ErrInvalidQueueName)
}

func TestEnqueue_PayloadTooLarge(t *testing.T) {
	q := newTestQueue(t)
	q.Register("t", func(ctx context.Context, s string) error { return nil })

	huge := strings.Repeat("x", 2<<20)
	_, err := q.Enqueue(context.Background(), "t", huge)
	assert.ErrorIs(t, err, core.ErrJobPayloadTooLarge)
}

func TestEnqueue_Delay(t *testing.T) {
	q := newTestQueue(t)
	q.Register("t", func(ctx context.Context, s string) error { return nil })

	before := time.Now()
	id, err := q.Enqueue(context.Background(), "t", "x", Delay(time.Hour))
	require.NoError(t, err)

	job, err := q.Storage().GetJob(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job.RunAt)
	assert.True(t, job.RunAt.After(before.Add(59*time.Minute)))
}

func TestEnqueue_At(t *testing.T) {
	q := newTestQueue(t)
	q.Register("t", func(ctx context.Context, s string) error { return nil })

	at := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	id, err := q.Enqueue(context.Background(), "t", "x", At(at))
	require.NoError(t, err)

	job, err := q.Storage().GetJob(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job.RunAt)
	assert.True(t, job.RunAt.Equal(at))
}

func TestSchedule(t *testing.T) {
	q := newTestQueue(t)
	q.Register("report", func(ctx context.Context, s string) error { return nil })

	q.Schedule("report", schedule.Every(time.Hour), QueueOpt("reports.hourly"))

	jobs := q.GetScheduledJobs()
	require.Contains(t, jobs, "report")
	assert.Equal(t, "reports.hourly", jobs["report"].Options.Queue)
}

func TestHooks_CalledInOrder(t *testing.T) {
	q := newTestQueue(t)
	job := &core.Job{ID: "j1", Queue: "q"}

	var calls []string
	q.OnJobStart(func(ctx context.Context, j *core.Job) {
		calls = append(calls, "start:"+j.ID)
	})
	q.OnJobSucceeded(func(ctx context.Context, j *core.Job) {
		calls = append(calls, "succeeded:"+j.ID)
	})
	q.OnRetry(func(ctx context.Context, j *core.Job, attempt int, err error) {
		calls = append(calls, "retry")
	})
	q.OnJobFatal(func(ctx context.Context, j *core.Job, err error) {
		calls = append(calls, "fatal")
	})

	ctx := context.Background()
	q.CallStartHooks(ctx, job)
	q.CallRetryHooks(ctx, job, 1, assert.AnError)
	q.CallSucceededHooks(ctx, job)
	q.CallFatalHooks(ctx, job, assert.AnError)

	assert.Equal(t, []string{"start:j1", "retry", "succeeded:j1", "fatal"}, calls)
}

func TestEvents_SubscribeAndEmit(t *testing.T) {
	q := newTestQueue(t)

	ch := q.Events()
	defer q.Unsubscribe(ch)

	job := &core.Job{ID: "j1", Queue: "q"}
	q.Emit(&core.JobStarted{Job: job, Timestamp: time.Now()})

	select {
	case e := <-ch:
		started, ok := e.(*core.JobStarted)
		require.True(t, ok)
		assert.Equal(t, "j1", started.Job.ID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestEvents_UnsubscribeStopsDelivery(t *testing.T) {
	q := newTestQueue(t)

	ch := q.Events()
	q.Unsubscribe(ch)

	q.Emit(&core.JobStarted{Job: &core.Job{ID: "j1"}, Timestamp: time.Now()})

	select {
	case <-ch:
		t.Fatal("received event after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmit_DropsWhenSubscriberFull(t *testing.T) {
	q := newTestQueue(t)

	ch := q.Events()
	defer q.Unsubscribe(ch)

	// Fill past the buffer; Emit must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			q.Emit(&core.JobStarted{Job: &core.Job{ID: "j"}, Timestamp: time.Now()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}
}
