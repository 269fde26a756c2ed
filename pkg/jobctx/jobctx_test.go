package jobctx

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/pkg/core"
)

func TestJobFromContext_RoundTrip(t *testing.T) {
	job := &core.Job{ID: "tid-1", Queue: "emails.send"}
	ctx := WithJob(context.Background(), job)

	got := JobFromContext(ctx)

	require.NotNil(t, got)
	assert.Same(t, job, got)
}

func TestJobFromContext_MissingReturnsNil(t *testing.T) {
	assert.Nil(t, JobFromContext(context.Background()))
}

func TestCorrelationID(t *testing.T) {
	ctx := WithJob(context.Background(), &core.Job{ID: "tid-42"})

	assert.Equal(t, "tid-42", CorrelationID(ctx))
	assert.Equal(t, "", CorrelationID(context.Background()))
}

func TestCorrelationID_SurvivesDerivedContexts(t *testing.T) {
	ctx := WithJob(context.Background(), &core.Job{ID: "tid-9"})
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	assert.Equal(t, "tid-9", CorrelationID(ctx))
}

func TestLogger_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), Logger(context.Background()))
}

func TestLogger_RoundTrip(t *testing.T) {
	logger := slog.Default().With("tid", "tid-1")
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, Logger(ctx))
}
