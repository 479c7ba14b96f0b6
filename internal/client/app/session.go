package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/reminder"
	"github.com/atinyakov/FlashVocab/internal/client/remote"
	"github.com/atinyakov/FlashVocab/internal/client/storage"
)

// ErrCredentials is returned when email or password is blank.
var ErrCredentials = errors.New("email and password are required")

// Login signs in, stores the session and pulls the server copy of the
// list and reminder config.
func (a *App) Login(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, a.remote.Login, email, password)
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, a.remote.Register, email, password)
}

func (a *App) authenticate(
	ctx context.Context,
	call func(ctx context.Context, email, password string) (remote.AuthResult, error),
	email, password string,
) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrCredentials
	}
	res, err := call(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.local.SetSession(res.Token, res.User.Email, storage.SessionTTL); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	a.log.Info("signed in", zap.String("email", res.User.Email))

	if _, err := a.SyncFromServer(ctx); err != nil {
		a.log.Warn("sync after sign in", zap.Error(err))
	}
	if _, err := a.RefreshReminder(ctx); err != nil {
		a.log.Debug("refresh reminder", zap.Error(err))
	}
	return nil
}

// Logout revokes the token on the server, best-effort, and forgets the
// local session. The local list is kept.
func (a *App) Logout(ctx context.Context) error {
	a.remote.Logout(ctx)
	return a.local.ClearSession()
}

// Account returns the signed-in email, if any.
func (a *App) Account() (string, bool) {
	s, ok := a.local.Session()
	if !ok {
		return "", false
	}
	return s.Email, true
}

// Voice returns the stored pronunciation voice identifier.
func (a *App) Voice() string {
	return a.local.Voice()
}

// SetVoice stores the pronunciation voice identifier.
func (a *App) SetVoice(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("voice id is required")
	}
	return a.local.SetVoice(id)
}

// ReminderConfig returns the locally stored reminder config.
func (a *App) ReminderConfig() (reminder.Config, error) {
	return a.local.LoadReminder()
}

// SaveReminder stores cfg locally and, when signed in, on the server.
// A server failure is logged and does not undo the local save.
func (a *App) SaveReminder(ctx context.Context, cfg reminder.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := a.local.SaveReminder(cfg); err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	if !a.remote.Connected() {
		return nil
	}
	if _, err := a.remote.SaveReminderConfig(ctx, cfg); err != nil {
		a.log.Warn("push reminder config", zap.Error(err))
	}
	return nil
}

// RefreshReminder replaces the local reminder config with the server
// copy. It returns the config now in effect.
func (a *App) RefreshReminder(ctx context.Context) (reminder.Config, error) {
	local, err := a.local.LoadReminder()
	if err != nil {
		return local, err
	}
	cfg, err := a.remote.LoadReminderConfig(ctx)
	if err != nil {
		return local, err
	}
	if cfg == nil {
		return local, nil
	}
	merged := *cfg
	// The server may omit secrets it does not echo back.
	if merged.Token == "" {
		merged.Token = local.Token
	}
	if merged.ChatID == "" {
		merged.ChatID = local.ChatID
	}
	if err := a.local.SaveReminder(merged); err != nil {
		return local, fmt.Errorf("save reminder: %w", err)
	}
	return merged, nil
}

// DetectChat finds the chat that last messaged the bot, enables the
// reminder for it and saves the config like SaveReminder.
func (a *App) DetectChat(ctx context.Context, botToken string) (string, error) {
	cfg, err := a.local.LoadReminder()
	if err != nil {
		return "", err
	}
	if botToken == "" {
		botToken = cfg.Token
	}
	if botToken == "" {
		return "", errors.New("bot token is required")
	}
	chatID, err := a.remote.DetectChat(ctx, botToken)
	if err != nil {
		return "", err
	}
	if chatID == "" {
		return "", nil
	}
	cfg.Token = botToken
	cfg.ChatID = chatID
	cfg.Enabled = true
	if err := a.SaveReminder(ctx, cfg); err != nil {
		return chatID, err
	}
	return chatID, nil
}

// TestSend sends the reminder message now. Signed in, the server sends
// to the linked chat; otherwise the local bot token and chat id are used.
func (a *App) TestSend(ctx context.Context) error {
	msg := reminder.Message(a.store)
	if a.remote.Connected() {
		ok, err := a.remote.TestSend(ctx, msg)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("server did not send the message")
		}
		return nil
	}
	cfg, err := a.local.LoadReminder()
	if err != nil {
		return err
	}
	if cfg.Token == "" || cfg.ChatID == "" {
		return errors.New("bot token and chat id are required")
	}
	return a.remote.SendMessage(ctx, cfg.Token, cfg.ChatID, msg)
}

// ReminderStatus reports the server-side bot link of the account.
func (a *App) ReminderStatus(ctx context.Context) remote.Status {
	return a.remote.Status(ctx)
}
