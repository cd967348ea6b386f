// Package api provides HTTP handlers for the date quiz.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/go-chi/chi/v5"
)

// SessionCloser drops display connections of a deleted conversation.
type SessionCloser interface {
	CloseSession(sessionID string)
}

// Handler provides the quiz endpoints and common handler utilities.
type Handler struct {
	dispatcher *skill.Dispatcher
	repo       store.Repository
	table      *content.Table
	closer     SessionCloser
}

// NewHandler creates a new Handler with common dependencies. closer may be nil.
func NewHandler(dispatcher *skill.Dispatcher, repo store.Repository, closer SessionCloser) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		repo:       repo,
		table:      dispatcher.Machine().Table(),
		closer:     closer,
	}
}

// RegisterRoutes registers the quiz routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/turn", h.Turn)
		r.Get("/partners", h.Partners)
		r.Get("/sessions/{id}", h.GetSession)
		r.Delete("/sessions/{id}", h.DeleteSession)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
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
