// Package http provides the HTTP handlers and router of the FlashVocab
// sync server.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/FlashVocab/internal/middleware"
	"github.com/atinyakov/FlashVocab/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, email, password string) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a bearer token to a user id.
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// CredentialsRequest represents the JSON payload for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	Email string `json:"email"`
}

// AuthResponse is returned on successful register and login.
type AuthResponse struct {
	Token string   `json:"token"`
	User  authUser `json:"user"`
}

func decodeCredentials(r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		return req, false
	}
	return req, true
}

// Register handles POST /api/auth/register. It creates the account and
// returns the first session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.AuthService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Token: res.Token, User: authUser{Email: res.Email}})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: res.Token, User: authUser{Email: res.Email}})
}

// Logout handles POST /api/auth/logout. The bearer token is optional;
// without one the call is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}
