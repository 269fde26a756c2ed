// Package report defines the error-reporting capability used by the executor.
//
// The executor only ever sees the Reporter interface; the process-wide
// default lives here, at the wiring layer, so the core stays free of
// singletons and a service can swap in its own sink (Sentry, Rollbar, a
// dead-letter topic) without touching executor code.
package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/taskloop/taskloop/pkg/core"
)

// Reporter is a failure sink. Implementations must be safe for concurrent
// use from many executors.
type Reporter interface {
	Report(err error)
}

// SlogReporter reports errors through a structured logger, attaching the
// task context when present.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter creates a reporter backed by logger. A nil logger uses
// slog.Default.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger}
}

// Report logs the error with any enrichment carried by a core.TaskError.
func (r *SlogReporter) Report(err error) {
	if err == nil {
		return
	}

	attrs := []any{"error", err}

	var te *core.TaskError
	if errors.As(err, &te) {
		if te.Queue != "" {
			attrs = append(attrs, "queue", te.Queue)
		}
		if te.Tid != "" {
			attrs = append(attrs, "tid", te.Tid)
		}
		if te.Payload != nil {
			attrs = append(attrs, "payload_bytes", len(te.Payload))
		}
	}

	r.Logger.LogAttrs(context.Background(), slog.LevelError, "task error reported", toAttrs(attrs)...)
}

func toAttrs(kv []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, kv[i+1]))
	}
	return attrs
}

var (
	defaultMu       sync.RWMutex
	defaultReporter Reporter = NewSlogReporter(nil)
)

// Default returns the process-wide reporter.
func Default() Reporter {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultReporter
}

// SetDefault replaces the process-wide reporter. A nil reporter restores
// the slog-backed default.
func SetDefault(r Reporter) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if r == nil {
		r = NewSlogReporter(nil)
	}
	defaultReporter = r
}
