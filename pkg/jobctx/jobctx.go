// Package jobctx carries per-job correlation state through context.Context.
//
// The executor establishes the correlation scope once, before the first
// attempt, and reuses the same context for every retry. Anything running
// inside a task — however deep the call chain — can recover the job, its
// correlation id, and a pre-tagged logger without explicit parameter
// threading.
package jobctx

import (
	"context"
	"log/slog"

	"github.com/taskloop/taskloop/pkg/core"
)

type jobKey struct{}
type loggerKey struct{}

// WithJob attaches the job to the context. The executor calls this once per
// job; the same context flows through all attempts.
func WithJob(ctx context.Context, job *core.Job) context.Context {
	return context.WithValue(ctx, jobKey{}, job)
}

// JobFromContext returns the current Job, or nil outside a job scope.
func JobFromContext(ctx context.Context) *core.Job {
	if job, ok := ctx.Value(jobKey{}).(*core.Job); ok {
		return job
	}
	return nil
}

// CorrelationID returns the current job's correlation id (tid), or empty
// string outside a job scope.
func CorrelationID(ctx context.Context) string {
	job := JobFromContext(ctx)
	if job == nil {
		return ""
	}
	return job.ID
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the context's logger, falling back to slog.Default. Inside
// a job scope the logger is already tagged with tid and queue.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
