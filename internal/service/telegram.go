package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/models"
	"github.com/atinyakov/FlashVocab/internal/repository"
)

// DefaultTestMessage is sent by TestSend when no text is given.
const DefaultTestMessage = "FlashVocab: test message"

// ErrNotLinked is returned when the user has no bot token or chat id.
var ErrNotLinked = errors.New("telegram not linked")

// BotError is an error reported by the Bot API.
type BotError struct {
	Code        int
	Description string
}

func (e *BotError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.Code, e.Description)
}

// TelegramRepository stores per-user reminder settings.
type TelegramRepository interface {
	// GetConfig returns repository.ErrNotFound when nothing is saved.
	GetConfig(ctx context.Context, userID string) (*models.TelegramConfig, error)
	SaveConfig(ctx context.Context, userID string, c models.TelegramConfig) error
}

// TelegramService stores reminder settings and relays messages to the
// Telegram Bot API.
type TelegramService struct {
	repo    TelegramRepository
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewTelegramService creates a relay against the Bot API at baseURL.
func NewTelegramService(repo TelegramRepository, baseURL string, httpClient *http.Client, log *zap.Logger) *TelegramService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// GetConfig returns the user's settings, or the 08:00 disabled default
// when none were saved.
func (s *TelegramService) GetConfig(ctx context.Context, userID string) (models.TelegramConfig, error) {
	cfg, err := s.repo.GetConfig(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.TelegramConfig{Hour: 8}, nil
	}
	if err != nil {
		return models.TelegramConfig{}, err
	}
	return *cfg, nil
}

// SaveConfig validates and stores cfg.
func (s *TelegramService) SaveConfig(ctx context.Context, userID string, cfg models.TelegramConfig) (models.TelegramConfig, error) {
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return models.TelegramConfig{}, ErrInvalidInput
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	if err := s.repo.SaveConfig(ctx, userID, cfg); err != nil {
		return models.TelegramConfig{}, err
	}
	return cfg, nil
}

// Status reports whether the user has a bot and a chat configured.
func (s *TelegramService) Status(ctx context.Context, userID string) (bool, string, error) {
	cfg, err := s.GetConfig(ctx, userID)
	if err != nil {
		return false, "", err
	}
	return cfg.Token != "" && cfg.ChatID != "", cfg.ChatID, nil
}

// TestSend messages the user's linked chat.
func (s *TelegramService) TestSend(ctx context.Context, userID, text string) error {
	cfg, err := s.GetConfig(ctx, userID)
	if err != nil {
		return err
	}
	if cfg.Token == "" || cfg.ChatID == "" {
		return ErrNotLinked
	}
	if strings.TrimSpace(text) == "" {
		text = DefaultTestMessage
	}
	return s.Send(ctx, cfg.Token, cfg.ChatID, text)
}

type botResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type botChat struct {
	ID int64 `json:"id"`
}

type botMessage struct {
	Chat botChat `json:"chat"`
}

type botUpdate struct {
	UpdateID      int64       `json:"update_id"`
	Message       *botMessage `json:"message"`
	EditedMessage *botMessage `json:"edited_message"`
	ChannelPost   *botMessage `json:"channel_post"`
}

func (u botUpdate) chatID() (int64, bool) {
	for _, m := range []*botMessage{u.Message, u.EditedMessage, u.ChannelPost} {
		if m != nil && m.Chat.ID != 0 {
			return m.Chat.ID, true
		}
	}
	return 0, false
}

// Send delivers text to chatID using the bot token.
func (s *TelegramService) Send(ctx context.Context, token, chatID, text string) error {
	if token == "" || chatID == "" || text == "" {
		return ErrInvalidInput
	}
	body, err := json.Marshal(map[string]string{"chat_id": chatID, "text": text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	_, err = s.call(ctx, http.MethodPost, token, "sendMessage", bytes.NewReader(body))
	if err != nil {
		s.log.Warn("telegram send failed", zap.String("chat_id", chatID), zap.Error(err))
	}
	return err
}

// Detect returns the chat id of the most recent update the bot
// received, empty when there is none.
func (s *TelegramService) Detect(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidInput
	}
	raw, err := s.call(ctx, http.MethodGet, token, "getUpdates", nil)
	if err != nil {
		return "", err
	}
	var updates []botUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		return "", fmt.Errorf("decode updates: %w", err)
	}
	for i := len(updates) - 1; i >= 0; i-- {
		if id, ok := updates[i].chatID(); ok {
			return strconv.FormatInt(id, 10), nil
		}
	}
	return "", nil
}

func (s *TelegramService) call(ctx context.Context, method, token, op string, body io.Reader) (json.RawMessage, error) {
	endpoint := s.baseURL + "/bot" + url.PathEscape(token) + "/" + op
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		return nil, fmt.Errorf("telegram %s: request failed", op)
	}
	defer resp.Body.Close()

	var out botResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram %s: invalid response: %w", op, err)
	}
	if !out.OK {
		code := out.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &BotError{Code: code, Description: out.Description}
	}
	return out.Result, nil
}
