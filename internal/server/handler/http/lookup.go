package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/FlashVocab/internal/service"
)

// LookupService defines the translation and example proxies.
type LookupService interface {
	Translate(ctx context.Context, text string) (string, error)
	Example(ctx context.Context, word string) (string, error)
}

// LookupHandler serves the public lookup endpoints.
type LookupHandler struct {
	LookupService LookupService
}

func lookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, err)
		return
	}
	http.Error(w, "lookup failed", http.StatusBadGateway)
}

// Translate handles GET /api/translate?q=.
func (h *LookupHandler) Translate(w http.ResponseWriter, r *http.Request) {
	text, err := h.LookupService.Translate(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Example handles GET /api/example?word=.
func (h *LookupHandler) Example(w http.ResponseWriter, r *http.Request) {
	example, err := h.LookupService.Example(r.Context(), r.URL.Query().Get("word"))
	if err != nil {
		lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"example": example})
}
