package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
	"github.com/lumenpay-systems/fraudpipe/internal/processor"
)

// BatchHandler exposes the scoring pipeline over HTTP. The handler is a thin
// delivery adapter: it decodes the batch structure and hands it to the
// transport-agnostic processor.
type BatchHandler struct {
	processor *processor.Processor
}

// NewBatchHandler constructs a handler around p.
func NewBatchHandler(p *processor.Processor) *BatchHandler {
	return &BatchHandler{processor: p}
}

// BatchResponse summarizes one batch invocation.
type BatchResponse struct {
	Records   int            `json:"records"`
	Persisted int            `json:"persisted"`
	Skipped   int            `json:"skipped"`
	ByReason  map[string]int `json:"by_reason,omitempty"`
}

// ProcessBatch handles POST /api/v1/batches requests.
func (h *BatchHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var batch models.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(batch.Records) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "batch has no records")
		return
	}

	summary := h.processor.ProcessBatch(r.Context(), &batch)

	resp := BatchResponse{
		Records:   summary.Records,
		Persisted: summary.Persisted,
		Skipped:   summary.Skipped,
	}
	if len(summary.ByReason) > 0 {
		resp.ByReason = make(map[string]int, len(summary.ByReason))
		for reason, n := range summary.ByReason {
			resp.ByReason[string(reason)] = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func (h *BatchHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	type errorBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method is not allowed")
}
