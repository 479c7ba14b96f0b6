// Package remote is the client side of the sync server API. Word CRUD
// is best-effort: failures are logged and reported as nil/false so the
// local list stays authoritative.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/reminder"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

const (
	apiWords        = "/api/words"
	apiRegister     = "/api/auth/register"
	apiLogin        = "/api/auth/login"
	apiLogout       = "/api/auth/logout"
	apiTgConfig     = "/api/telegram/config"
	apiTgStatus     = "/api/telegram/status"
	apiTgTestSend   = "/api/telegram/test-send"
	apiTgDetect     = "/api/telegram/detect"
	apiTgSend       = "/api/telegram/send"
	apiTranslate    = "/api/translate"
	apiExample      = "/api/example"
	maxErrorBodyLen = 512
)

// ErrNotConnected is returned by calls that need a login when there is
// no token. No request is made in that case.
var ErrNotConnected = errors.New("not connected")

// TokenSource provides the current bearer token, empty when logged out.
type TokenSource interface {
	Token() string
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Client talks to the sync server.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New creates a client for baseURL. tokens may be nil for an anonymous
// client; log may be nil.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		log:     log,
	}
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// Connected reports whether a bearer token is available.
func (c *Client) Connected() bool {
	return c.token() != ""
}

// do sends body as JSON and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// FetchAll returns every word stored for the user, or nil on any failure.
func (c *Client) FetchAll(ctx context.Context) []vocab.Record {
	if !c.Connected() {
		return nil
	}
	var docs []vocab.Record
	if err := c.do(ctx, http.MethodGet, apiWords, nil, &docs); err != nil {
		c.log.Debug("fetch words", zap.Error(err))
		return nil
	}
	if docs == nil {
		docs = []vocab.Record{}
	}
	return docs
}

// Create stores rec on the server and returns it with its server id.
func (c *Client) Create(ctx context.Context, rec vocab.Record) *vocab.Record {
	var doc vocab.Record
	if err := c.do(ctx, http.MethodPost, apiWords, rec, &doc); err != nil {
		c.log.Debug("create word", zap.String("word", rec.Word), zap.Error(err))
		return nil
	}
	return &doc
}

// Patch applies a partial update to the word with remoteID.
func (c *Client) Patch(ctx context.Context, remoteID string, update map[string]any) *vocab.Record {
	var doc vocab.Record
	if err := c.do(ctx, http.MethodPatch, apiWords+"/"+url.PathEscape(remoteID), update, &doc); err != nil {
		c.log.Debug("patch word", zap.String("remote_id", remoteID), zap.Error(err))
		return nil
	}
	return &doc
}

// Delete removes the word with remoteID.
func (c *Client) Delete(ctx context.Context, remoteID string) bool {
	if err := c.do(ctx, http.MethodDelete, apiWords+"/"+url.PathEscape(remoteID), nil, nil); err != nil {
		c.log.Debug("delete word", zap.String("remote_id", remoteID), zap.Error(err))
		return false
	}
	return true
}

// Translate returns the server translation of text, empty on failure.
func (c *Client) Translate(ctx context.Context, text string) string {
	var out struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodGet, apiTranslate+"?q="+url.QueryEscape(text), nil, &out); err != nil {
		c.log.Debug("translate", zap.Error(err))
		return ""
	}
	return out.Text
}

// Example returns an example sentence for word, empty on failure.
func (c *Client) Example(ctx context.Context, word string) string {
	var out struct {
		Example string `json:"example"`
	}
	if err := c.do(ctx, http.MethodGet, apiExample+"?word="+url.QueryEscape(word), nil, &out); err != nil {
		c.log.Debug("example", zap.Error(err))
		return ""
	}
	return out.Example
}

// Status is the bot link state of the account.
type Status struct {
	Connected bool   `json:"connected"`
	ChatID    string `json:"chatId"`
}

type telegramEnvelope struct {
	Telegram *reminder.Config `json:"telegram"`
}

// LoadReminderConfig returns the reminder config stored on the server,
// nil when the server has none.
func (c *Client) LoadReminderConfig(ctx context.Context) (*reminder.Config, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	var env telegramEnvelope
	if err := c.do(ctx, http.MethodGet, apiTgConfig, nil, &env); err != nil {
		return nil, err
	}
	return env.Telegram, nil
}

// SaveReminderConfig pushes cfg to the server.
func (c *Client) SaveReminderConfig(ctx context.Context, cfg reminder.Config) (*reminder.Config, error) {
	if !c.Connected() {
		return nil, ErrNotConnected
	}
	var env telegramEnvelope
	if err := c.do(ctx, http.MethodPost, apiTgConfig, cfg, &env); err != nil {
		return nil, err
	}
	return env.Telegram, nil
}

// Status reports whether the account is linked to a chat. Failures and a
// missing login read as not connected.
func (c *Client) Status(ctx context.Context) Status {
	if !c.Connected() {
		return Status{}
	}
	var st Status
	if err := c.do(ctx, http.MethodGet, apiTgStatus, nil, &st); err != nil {
		c.log.Debug("telegram status", zap.Error(err))
		return Status{}
	}
	return st
}

// TestSend asks the server to message the linked chat.
func (c *Client) TestSend(ctx context.Context, text string) (bool, error) {
	if !c.Connected() {
		return false, ErrNotConnected
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodPost, apiTgTestSend, map[string]string{"text": text}, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// DetectChat returns the chat that most recently messaged the bot, empty
// when there is none yet.
func (c *Client) DetectChat(ctx context.Context, botToken string) (string, error) {
	var out struct {
		ChatID string `json:"chatId"`
	}
	if err := c.do(ctx, http.MethodPost, apiTgDetect, map[string]string{"token": botToken}, &out); err != nil {
		return "", err
	}
	return out.ChatID, nil
}

// SendMessage relays text to chatID through the server.
func (c *Client) SendMessage(ctx context.Context, botToken, chatID, text string) error {
	return c.do(ctx, http.MethodPost, apiTgSend, map[string]string{
		"token":  botToken,
		"chatId": chatID,
		"text":   text,
	}, nil)
}
