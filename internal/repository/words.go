package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/atinyakov/FlashVocab/internal/models"
)

const wordColumns = `id, client_id, word, meaning, example, phonetics, pos, definition, audio, status, created_at`

// PostgresWordRepository stores vocabulary words in PostgreSQL.
type PostgresWordRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresWordRepository creates a new PostgresWordRepository using the
// provided *sql.DB.
func NewPostgresWordRepository(db *sql.DB) *PostgresWordRepository {
	return &PostgresWordRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWord(row scanner) (models.Word, error) {
	var w models.Word
	err := row.Scan(&w.ID, &w.ClientID, &w.Word, &w.Meaning, &w.Example, &w.Phonetics,
		&w.POS, &w.Definition, &w.Audio, &w.Status, &w.CreatedAt)
	return w, err
}

// ListWords returns the user's live words, newest first.
func (s *PostgresWordRepository) ListWords(ctx context.Context, userID string) ([]models.Word, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+wordColumns+` FROM words
		WHERE user_id = $1 AND deleted = false
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListWords: %w", err)
	}
	defer rows.Close()

	words := []models.Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWords: %w", err)
	}
	return words, nil
}

// CreateWord inserts w for the user. w.ID must be set.
func (s *PostgresWordRepository) CreateWord(ctx context.Context, userID string, w models.Word) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO words (id, user_id, client_id, word, meaning, example, phonetics, pos, definition, audio, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, w.ID, userID, w.ClientID, w.Word, w.Meaning, w.Example, w.Phonetics, w.POS, w.Definition, w.Audio, w.Status, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateWord: %w", err)
	}
	return nil
}

// UpdateWord applies patch to a live word inside a transaction and
// returns the result.
func (s *PostgresWordRepository) UpdateWord(ctx context.Context, userID, id string, patch models.WordPatch) (*models.Word, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cur, err := scanWord(tx.QueryRowContext(ctx, `
		SELECT `+wordColumns+` FROM words
		WHERE user_id = $1 AND id = $2 AND deleted = false
		FOR UPDATE
	`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select word: %w", err)
	}

	w := patch.Apply(cur)
	_, err = tx.ExecContext(ctx, `
		UPDATE words SET word = $3, meaning = $4, example = $5, phonetics = $6,
			pos = $7, definition = $8, audio = $9, status = $10
		WHERE user_id = $1 AND id = $2
	`, userID, id, w.Word, w.Meaning, w.Example, w.Phonetics, w.POS, w.Definition, w.Audio, w.Status)
	if err != nil {
		return nil, fmt.Errorf("update word: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &w, nil
}

// DeleteWords soft-deletes words by id. It returns ErrNotFound when none
// of the ids matched a live word.
func (s *PostgresWordRepository) DeleteWords(ctx context.Context, userID string, ids []string, now time.Time) error {
	query := `UPDATE words SET deleted = true, deleted_at = $3 WHERE user_id = $1 AND id = ANY($2) AND deleted = false`
	res, err := s.DB.ExecContext(ctx, query, userID, pq.Array(ids), now)
	if err != nil {
		return fmt.Errorf("DeleteWords: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
