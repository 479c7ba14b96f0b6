// Package reminder sends one study reminder per day through the bot
// relay while the client is running.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

const (
	messagePrefix = "Nhắc học từ vựng hôm nay: "
	fallbackWord  = "Học từ vựng nhé!"
	markPrefix    = "fv_reminded_"
	tick          = time.Minute
)

// Config is the reminder setup as stored locally and on the server.
type Config struct {
	Enabled bool   `json:"enabled"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}

// DefaultConfig is 08:00, disabled.
func DefaultConfig() Config {
	return Config{Hour: 8}
}

// Armed reports whether the scheduler has everything it needs to send.
func (c Config) Armed() bool {
	return c.Enabled && c.Token != "" && c.ChatID != ""
}

// Validate checks the time of day.
func (c Config) Validate() error {
	if c.Hour < 0 || c.Hour > 23 {
		return fmt.Errorf("hour %d out of range 0-23", c.Hour)
	}
	if c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("minute %d out of range 0-59", c.Minute)
	}
	return nil
}

// ConfigSource yields the current config on every tick.
type ConfigSource interface {
	LoadReminder() (Config, error)
}

// WordSource provides the word the reminder mentions.
type WordSource interface {
	First() (vocab.Record, bool)
}

// Sender relays a message to the bot.
type Sender interface {
	SendMessage(ctx context.Context, botToken, chatID, text string) error
}

// Marks remembers which days already got a reminder in this session.
type Marks interface {
	Has(key string) bool
	Set(key string)
}

// Scheduler checks the clock once a minute and sends at most one
// reminder per day per session.
type Scheduler struct {
	cfg    ConfigSource
	words  WordSource
	sender Sender
	marks  Marks
	log    *zap.Logger
	now    func() time.Time
}

// NewScheduler wires a scheduler. log may be nil.
func NewScheduler(cfg ConfigSource, words WordSource, sender Sender, marks Marks, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, words: words, sender: sender, marks: marks, log: log, now: time.Now}
}

// Message builds the reminder text.
func Message(words WordSource) string {
	if r, ok := words.First(); ok && r.Word != "" {
		return messagePrefix + r.Word
	}
	return messagePrefix + fallbackWord
}

// Check runs one tick. It reports whether a send was attempted.
func (s *Scheduler) Check(ctx context.Context) bool {
	cfg, err := s.cfg.LoadReminder()
	if err != nil {
		s.log.Warn("load reminder config", zap.Error(err))
		return false
	}
	if !cfg.Armed() {
		return false
	}

	now := s.now()
	if now.Hour() != cfg.Hour || now.Minute() != cfg.Minute {
		return false
	}
	key := markPrefix + now.Format("Mon Jan 02 2006")
	if s.marks.Has(key) {
		return false
	}

	msg := Message(s.words)
	if err := s.sender.SendMessage(ctx, cfg.Token, cfg.ChatID, msg); err != nil {
		s.log.Warn("reminder not sent", zap.Error(err))
	} else {
		s.log.Info("reminder sent", zap.String("chat_id", cfg.ChatID))
	}
	// One attempt per day, successful or not.
	s.marks.Set(key)
	return true
}

// Run checks every minute until ctx is done. Ticks missed while the
// process was suspended are not replayed.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Start runs the scheduler on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}
