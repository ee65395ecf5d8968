package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/pipeline"
)

// QueryRunner is the pipeline surface the handlers need.
type QueryRunner interface {
	Run(ctx context.Context, question string) (*pipeline.Answer, error)
}

// Handler serves the JSON API.
type Handler struct {
	pipeline QueryRunner
	log      zerolog.Logger
}

// NewHandler creates the API handler
func NewHandler(p QueryRunner, log zerolog.Logger) *Handler {
	return &Handler{pipeline: p, log: log}
}

type queryRequest struct {
	Query string `json:"query"`
	// History is accepted for forward compatibility but not used by the
	// pipeline.
	History json.RawMessage `json:"history,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Query answers POST /api/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	answer, err := h.pipeline.Run(r.Context(), req.Query)
	if err != nil {
		h.log.Error().
			Err(err).
			Str("request_id", RequestIDFrom(r.Context())).
			Msg("pipeline failed")
		// The raw message reaches the caller, including driver detail.
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// Health answers GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
