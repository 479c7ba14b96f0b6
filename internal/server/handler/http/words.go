package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/FlashVocab/internal/middleware"
	"github.com/atinyakov/FlashVocab/internal/models"
)

// WordService defines the word list operations required by the WordHandler.
type WordService interface {
	List(ctx context.Context, userID string) ([]models.Word, error)
	Create(ctx context.Context, userID string, w models.Word) (*models.Word, error)
	Patch(ctx context.Context, userID, id string, patch models.WordPatch) (*models.Word, error)
	Delete(ctx context.Context, userID, id string) error
}

// WordHandler serves the authenticated user's word list.
type WordHandler struct {
	WordService WordService
}

// List handles GET /api/words.
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	words, err := h.WordService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if words == nil {
		words = []models.Word{}
	}
	writeJSON(w, http.StatusOK, words)
}

// Create handles POST /api/words and returns the stored word with its
// server id.
func (h *WordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Word
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	word, err := h.WordService.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, word)
}

// Patch handles PATCH /api/words/{id}.
func (h *WordHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch models.WordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	word, err := h.WordService.Patch(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, word)
}

// Delete handles DELETE /api/words/{id}.
func (h *WordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.WordService.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}
