package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/FlashVocab/internal/middleware"
	"github.com/atinyakov/FlashVocab/internal/models"
)

// TelegramService defines the reminder settings and relay operations
// required by the TelegramHandler.
type TelegramService interface {
	GetConfig(ctx context.Context, userID string) (models.TelegramConfig, error)
	SaveConfig(ctx context.Context, userID string, cfg models.TelegramConfig) (models.TelegramConfig, error)
	Status(ctx context.Context, userID string) (bool, string, error)
	TestSend(ctx context.Context, userID, text string) error
	Detect(ctx context.Context, token string) (string, error)
	Send(ctx context.Context, token, chatID, text string) error
}

// TelegramHandler serves reminder settings and the bot relay.
type TelegramHandler struct {
	TelegramService TelegramService
}

type telegramEnvelope struct {
	Telegram models.TelegramConfig `json:"telegram"`
}

// GetConfig handles GET /api/telegram/config.
func (h *TelegramHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.TelegramService.GetConfig(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, telegramEnvelope{Telegram: cfg})
}

// SaveConfig handles POST /api/telegram/config.
func (h *TelegramHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var req models.TelegramConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	cfg, err := h.TelegramService.SaveConfig(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, telegramEnvelope{Telegram: cfg})
}

// Status handles GET /api/telegram/status.
func (h *TelegramHandler) Status(w http.ResponseWriter, r *http.Request) {
	connected, chatID, err := h.TelegramService.Status(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": connected, "chatId": chatID})
}

// TestSend handles POST /api/telegram/test-send.
func (h *TelegramHandler) TestSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}
	if err := h.TelegramService.TestSend(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

// Detect handles POST /api/telegram/detect. It returns the chat that
// most recently wrote to the bot, empty when none has.
func (h *TelegramHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	chatID, err := h.TelegramService.Detect(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"chatId": chatID})
}

// Send handles POST /api/telegram/send, relaying a message for clients
// that hold their own bot token.
func (h *TelegramHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		ChatID string `json:"chatId"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.TelegramService.Send(r.Context(), req.Token, req.ChatID, req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}
