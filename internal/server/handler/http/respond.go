package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/FlashVocab/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	var botErr *service.BotError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, "invalid request", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, service.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, "user already exists", http.StatusConflict)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNotLinked):
		http.Error(w, "telegram not linked", http.StatusBadRequest)
	case errors.As(err, &botErr):
		http.Error(w, botErr.Description, http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

var okResponse = map[string]bool{"ok": true}
