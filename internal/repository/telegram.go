package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/FlashVocab/internal/models"
)

// PostgresTelegramRepository stores per-user reminder settings.
type PostgresTelegramRepository struct {
	DB *sql.DB
}

// NewPostgresTelegramRepository creates a new PostgresTelegramRepository.
func NewPostgresTelegramRepository(db *sql.DB) *PostgresTelegramRepository {
	return &PostgresTelegramRepository{DB: db}
}

// GetConfig returns the user's config or ErrNotFound.
func (s *PostgresTelegramRepository) GetConfig(ctx context.Context, userID string) (*models.TelegramConfig, error) {
	var c models.TelegramConfig
	err := s.DB.QueryRowContext(ctx, `
		SELECT enabled, hour, minute, bot_token, chat_id FROM telegram_configs WHERE user_id = $1
	`, userID).Scan(&c.Enabled, &c.Hour, &c.Minute, &c.Token, &c.ChatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetConfig: %w", err)
	}
	return &c, nil
}

// SaveConfig inserts or replaces the user's config.
func (s *PostgresTelegramRepository) SaveConfig(ctx context.Context, userID string, c models.TelegramConfig) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO telegram_configs (user_id, enabled, hour, minute, bot_token, chat_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			hour = EXCLUDED.hour,
			minute = EXCLUDED.minute,
			bot_token = EXCLUDED.bot_token,
			chat_id = EXCLUDED.chat_id
	`, userID, c.Enabled, c.Hour, c.Minute, c.Token, c.ChatID)
	if err != nil {
		return fmt.Errorf("SaveConfig: %w", err)
	}
	return nil
}
