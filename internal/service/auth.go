// Package service provides the server's business logic: accounts and
// sessions, per-user word lists, the Telegram relay and the lookup
// proxies. Persistence is delegated to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/FlashVocab/internal/models"
	"github.com/atinyakov/FlashVocab/internal/repository"
)

// SessionTTL is how long an issued token stays valid.
const SessionTTL = 30 * 24 * time.Hour

var (
	// ErrUserExists is returned by Register when the email is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned by Login for an unknown email or
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput is returned for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned for unknown or expired tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when a user-owned resource does not exist.
	ErrNotFound = repository.ErrNotFound
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new user, returning repository.ErrDuplicate
	// when the email is taken.
	CreateUser(ctx context.Context, u models.User) error
	// GetUserByEmail returns repository.ErrNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateSession(ctx context.Context, sess models.Session) error
	// UserIDForToken resolves a token that has not expired at now.
	UserIDForToken(ctx context.Context, token string, now time.Time) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// AuthResult is returned on successful register or login.
type AuthResult struct {
	Token string
	Email string
}

// AuthService implements account and session operations by delegating
// to an AuthRepository.
type AuthService struct {
	repo AuthRepository
	now  func() time.Time
	cost int
}

// NewAuthService constructs a new AuthService using the provided repository.
func NewAuthService(repo AuthRepository) *AuthService {
	return &AuthService{repo: repo, now: time.Now, cost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and opens its first session.
func (s *AuthService) Register(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if exists {
		return AuthResult{}, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, ErrUserExists
		}
		return AuthResult{}, err
	}
	return s.openSession(ctx, u)
}

// Login checks the password and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}
	return s.openSession(ctx, *u)
}

func (s *AuthService) openSession(ctx context.Context, u models.User) (AuthResult, error) {
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.now().Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: sess.Token, Email: u.Email}, nil
}

// Logout revokes token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, token)
}

// Authenticate resolves token to a user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.repo.UserIDForToken(ctx, token, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnauthorized
	}
	return userID, err
}
