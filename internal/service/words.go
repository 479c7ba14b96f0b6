package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/FlashVocab/internal/models"
)

// WordRepository defines the persistence operations needed by the
// WordService.
type WordRepository interface {
	// ListWords returns the user's live words, newest first.
	ListWords(ctx context.Context, userID string) ([]models.Word, error)
	CreateWord(ctx context.Context, userID string, w models.Word) error
	// UpdateWord returns repository.ErrNotFound for unknown ids.
	UpdateWord(ctx context.Context, userID, id string, patch models.WordPatch) (*models.Word, error)
	// DeleteWords soft-deletes the words.
	DeleteWords(ctx context.Context, userID string, ids []string, now time.Time) error
}

// WordService implements the per-user word list.
type WordService struct {
	repo WordRepository
	now  func() time.Time
}

// NewWordService constructs a WordService with the provided WordRepository.
func NewWordService(repo WordRepository) *WordService {
	return &WordService{repo: repo, now: time.Now}
}

// List returns every live word of the user.
func (s *WordService) List(ctx context.Context, userID string) ([]models.Word, error) {
	return s.repo.ListWords(ctx, userID)
}

// Create stores w under a fresh server id. The word text is required;
// status defaults to new and CreatedAt to the current time.
func (s *WordService) Create(ctx context.Context, userID string, w models.Word) (*models.Word, error) {
	w.Word = strings.TrimSpace(w.Word)
	if w.Word == "" {
		return nil, ErrInvalidInput
	}
	if w.Status == "" {
		w.Status = models.StatusNew
	}
	if !models.ValidStatus(w.Status) {
		return nil, ErrInvalidInput
	}
	if w.CreatedAt == 0 {
		w.CreatedAt = s.now().UnixMilli()
	}
	w.ID = uuid.NewString()
	if err := s.repo.CreateWord(ctx, userID, w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Patch applies a partial update.
func (s *WordService) Patch(ctx context.Context, userID, id string, patch models.WordPatch) (*models.Word, error) {
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, ErrInvalidInput
	}
	if patch.Word != nil && strings.TrimSpace(*patch.Word) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.UpdateWord(ctx, userID, id, patch)
}

// Delete removes the word with id.
func (s *WordService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteWords(ctx, userID, []string{id}, s.now())
}
