package service

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/econindex/classifier/internal/models"
)

// batchRequest is the POST /classify/batch request body.
type batchRequest struct {
	Indicators  []models.IndicatorDescriptor `json:"indicators"`
	LLMProvider string                       `json:"llm_provider,omitempty"`
	Force       bool                         `json:"force,omitempty"`
}

// batchResponse is returned immediately; the batch itself completes
// asynchronously through SubmitBatch.
type batchResponse struct {
	TraceID string `json:"trace_id"`
	Count   int    `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ClassifyBatch handles POST /classify/batch: validates the batch-size
// bound, hands the batch to the orchestrator's SubmitBatch, and returns a
// trace id immediately without waiting for classification to finish.
func (s *Service) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(req.Indicators) == 0 {
		writeError(w, http.StatusBadRequest, "indicators must not be empty")
		return
	}
	if len(req.Indicators) > s.Config.Server.MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds maximum of %d", len(req.Indicators), s.Config.Server.MaxBatchSize))
		return
	}

	traceID, err := s.Orchestrator.SubmitBatch(r.Context(), s.Engine, req.Indicators, req.Force)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, batchResponse{TraceID: traceID, Count: len(req.Indicators)})
}

// Health handles GET /health.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
