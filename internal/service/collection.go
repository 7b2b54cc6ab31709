package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

// CollectionService manages saved-question bookmarks.
type CollectionService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCollectionService(store repository.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{store: store, logger: logger}
}

// Toggle saves the question for the user, or removes the bookmark if it
// is already saved. Returns true when the question ended up saved.
func (s *CollectionService) Toggle(ctx context.Context, userID, questionID string) (bool, error) {
	if strings.TrimSpace(questionID) == "" {
		return false, apperror.ValidationFailed("questionId", "question ID is required")
	}

	var saved bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		existing, err := tx.GetCollection(ctx, userID, questionID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			if _, err := tx.GetQuestionByID(ctx, questionID); err != nil {
				return err
			}
			saved = true
			return tx.CreateCollection(ctx, &model.Collection{
				UserID:     userID,
				QuestionID: questionID,
			})
		case err != nil:
			return err
		default:
			return tx.DeleteCollection(ctx, existing.ID)
		}
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("collection toggled",
		slog.String("userID", userID),
		slog.String("questionID", questionID),
		slog.Bool("saved", saved),
	)
	return saved, nil
}

// List returns the user's saved questions, newest first.
func (s *CollectionService) List(ctx context.Context, userID string, limit, offset int) ([]model.Collection, error) {
	return s.store.ListCollections(ctx, userID, clampList(limit, offset))
}

// IsSaved reports whether the user has the question bookmarked.
func (s *CollectionService) IsSaved(ctx context.Context, userID, questionID string) (bool, error) {
	_, err := s.store.GetCollection(ctx, userID, questionID)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
