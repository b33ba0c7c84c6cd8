package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenpay-systems/fraudpipe/internal/handlers"
	"github.com/lumenpay-systems/fraudpipe/internal/middleware"
)

// NewRouter wires HTTP routes for the pipeline service.
func NewRouter(h *handlers.BatchHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/batches", h.ProcessBatch)
	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())
	return middleware.RequestID(mux)
}
