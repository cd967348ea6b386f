package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/datequiz/internal/domain"
	"github.com/ashureev/datequiz/internal/identity"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/go-chi/chi/v5"
)

const maxTurnBody = 64 << 10

// TurnResponse is the body returned for one turn.
type TurnResponse struct {
	SessionID   string             `json:"sessionId"`
	APIResponse any                `json:"apiResponse"`
	SSML        string             `json:"ssml"`
	Text        string             `json:"text"`
	Segments    []domain.Segment   `json:"segments"`
	Visual      *domain.VisualHint `json:"visual,omitempty"`
	Score       *int               `json:"score,omitempty"`
	Outcome     domain.Outcome     `json:"outcome,omitempty"`
	Phase       domain.Phase       `json:"phase"`
}

// Turn runs one dialogue turn.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var req skill.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTurnBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = identity.SessionIDFromContext(r.Context())
	} else if !identity.ValidSessionID(req.SessionID) {
		Error(w, http.StatusBadRequest, "invalid sessionId")
		return
	}
	w.Header().Set(identity.SessionHeaderName, req.SessionID)

	resp := h.dispatcher.Handle(r.Context(), req)
	if resp.Err != nil {
		slog.Warn("Turn answered with fallback",
			"op", req.Name,
			"session_id", req.SessionID,
			"ip", identity.IPFromRequest(r),
			"error", resp.Err)
	}

	segments := resp.Result.Narration.Segments
	if segments == nil {
		segments = []domain.Segment{}
	}
	JSON(w, http.StatusOK, TurnResponse{
		SessionID:   resp.SessionID,
		APIResponse: resp.APIResponse(),
		SSML:        resp.Result.Narration.SSML(),
		Text:        resp.Result.Narration.PlainText(),
		Segments:    segments,
		Visual:      resp.Result.Visual,
		Score:       resp.Result.Score,
		Outcome:     resp.Result.Outcome,
		Phase:       resp.Session.Phase(),
	})
}

// GetSession returns the stored attributes of a conversation.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := h.repo.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load session", "error", err, "session_id", id)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"sessionId":  stored.SessionID,
		"attributes": stored.Session,
		"phase":      stored.Session.Phase(),
		"createdAt":  stored.CreatedAt,
		"updatedAt":  stored.UpdatedAt,
	})
}

// DeleteSession drops a conversation and its display connections.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteSession(r.Context(), id); err != nil {
		slog.Error("Failed to delete session", "error", err, "session_id", id)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if h.closer != nil {
		h.closer.CloseSession(id)
	}
	slog.Info("Session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Partners lists the partner catalogue.
func (h *Handler) Partners(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"partners": h.table.Catalogue(),
	})
}
