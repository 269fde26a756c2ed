package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/storage"
	"github.com/taskloop/taskloop/pkg/telemetry"
)

func seededStorage(t *testing.T) core.Storage {
	t.Helper()
	s := storage.NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "t", Queue: "emails.send"}))
	require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "t", Queue: "emails.send"}))
	require.NoError(t, s.Enqueue(ctx, &core.Job{Type: "t", Queue: "reports.daily"}))

	job, err := s.Dequeue(ctx, []string{"emails.send"}, "w")
	require.NoError(t, err)
	require.NoError(t, s.Complete(ctx, job.ID, "w"))

	return s
}

func TestHandler_Healthz(t *testing.T) {
	h := Handler(storage.NewMemoryStorage())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_Stats(t *testing.T) {
	h := Handler(seededStorage(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Counts map[string]int64 `json:"counts"`
		Total  int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, int64(2), resp.Counts[string(core.StatusPending)])
	assert.Equal(t, int64(1), resp.Counts[string(core.StatusSucceeded)])
}

func TestHandler_StatsFilteredByQueue(t *testing.T) {
	h := Handler(seededStorage(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?queue=reports.daily", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Queue string `json:"queue"`
		Total int64  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "reports.daily", resp.Queue)
	assert.Equal(t, int64(1), resp.Total)
}

func TestHandler_StatsRejectsInvalidQueue(t *testing.T) {
	h := Handler(seededStorage(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats?queue=bad%20queue!", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_MetricsFromRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := telemetry.NewPromSink(reg)
	sink.Incr("jobs.success", telemetry.DeriveTags("emails.send"))

	h := Handler(storage.NewMemoryStorage(), WithRegistry(reg))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskloop_jobs_events_total")
}

func TestHandler_Middleware(t *testing.T) {
	var touched bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			touched = true
			next.ServeHTTP(w, r)
		})
	}

	h := Handler(storage.NewMemoryStorage(), WithMiddleware(mw))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.True(t, touched)
	assert.Equal(t, http.StatusOK, rec.Code)
}
