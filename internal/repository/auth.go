// Package repository provides PostgreSQL persistence for users, sessions,
// words and reminder settings.
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

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// PostgresAuthRepository implements user and session operations using a
// PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the
// given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified email exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// CreateUser inserts u. It returns ErrDuplicate when the email is taken.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.PasswordHash,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// GetUserByEmail returns the user with email or ErrNotFound.
func (s *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CreateSession stores a session token.
func (s *PostgresAuthRepository) CreateSession(ctx context.Context, sess models.Session) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		sess.Token, sess.UserID, sess.ExpiresAt,
	)
	return err
}

// UserIDForToken resolves an unexpired token to its user id, or returns
// ErrNotFound.
func (s *PostgresAuthRepository) UserIDForToken(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT user_id FROM sessions WHERE token = $1 AND expires_at > $2`,
		token, now,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}
	return userID, nil
}

// DeleteSession revokes a token. Unknown tokens are not an error.
func (s *PostgresAuthRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}
