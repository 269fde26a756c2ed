// Package ops exposes the operational HTTP surface for a taskloop process:
// liveness, queue statistics, and prometheus metrics.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/taskloop/taskloop/pkg/core"
	"github.com/taskloop/taskloop/pkg/security"
)

// Handler creates an http.Handler serving the ops endpoints:
//
//	GET /healthz  liveness probe
//	GET /stats    job counts per status, optionally ?queue=name
//	GET /metrics  prometheus exposition
//
// Usage:
//
//	mux.Handle("/ops/", http.StripPrefix("/ops", ops.Handler(storage)))
func Handler(storage core.Storage, opts ...Option) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/stats", handleStats(storage))

	if cfg.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	// H2C for HTTP/2 over cleartext, matching the rest of the serving stack
	h2cHandler := h2c.NewHandler(mux, &http2.Server{})

	if cfg.middleware != nil {
		return cfg.middleware(h2cHandler)
	}
	return h2cHandler
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statsResponse is the /stats payload.
type statsResponse struct {
	Queue  string                   `json:"queue,omitempty"`
	Counts map[core.JobStatus]int64 `json:"counts"`
	Total  int64                    `json:"total"`
}

func handleStats(storage core.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queueName := r.URL.Query().Get("queue")
		if queueName != "" {
			if err := security.ValidateQueueName(queueName); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
		}

		counts, err := storage.CountByStatus(r.Context(), queueName)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query stats"})
			return
		}

		resp := statsResponse{Queue: queueName, Counts: counts}
		for _, n := range counts {
			resp.Total += n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
