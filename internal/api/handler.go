// Package api provides the HTTP surface of the web-memory agent.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"webmemory/internal/domain"
)

// Asker answers one question within a conversation thread.
type Asker interface {
	Ask(ctx context.Context, threadID, question string) (domain.Answer, error)
}

// Handler serves the ask API.
type Handler struct {
	agent Asker
	log   *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(agent Asker, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{agent: agent, log: log}
}

// Router builds the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.health)
	r.Post("/api/ask", h.ask)
	return r
}

type askRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"thread_id,omitempty"`
}

type askResponse struct {
	Answer   string `json:"answer"`
	ThreadID string `json:"thread_id"`
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		Error(w, http.StatusBadRequest, "question is required")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	answer, err := h.agent.Ask(r.Context(), threadID, question)
	if err != nil {
		// Internal error details may contain retrieved content; only the
		// log gets them.
		h.log.Error("ask failed", zap.String("thread", threadID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "an internal error occurred")
		return
	}
	JSON(w, http.StatusOK, askResponse{Answer: answer.Text, ThreadID: threadID})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
