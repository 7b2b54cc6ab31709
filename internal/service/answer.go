package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

// AnswerService handles posting, listing, and deleting answers. Every
// write also keeps the question's answer_count in step, inside the same
// transaction.
type AnswerService struct {
	store    repository.Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAnswerService(store repository.Store, logger *slog.Logger) *AnswerService {
	return &AnswerService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// PostAnswerInput is the payload for answering a question.
type PostAnswerInput struct {
	Content string `json:"content" validate:"required,min=20"`
}

// Post creates an answer on a question and bumps its answer count.
func (s *AnswerService) Post(ctx context.Context, authorID, questionID string, in PostAnswerInput) (*model.Answer, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(questionID) == "" {
		return nil, apperror.ValidationFailed("questionId", "question ID is required")
	}

	answer := &model.Answer{
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    in.Content,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetQuestionByID(ctx, questionID); err != nil {
			return err
		}
		if err := tx.CreateAnswer(ctx, answer); err != nil {
			return err
		}
		return tx.AdjustAnswerCount(ctx, questionID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("answer posted",
		slog.String("id", answer.ID),
		slog.String("questionID", questionID),
	)
	return answer, nil
}

// ListByQuestion returns a question's answers with their authors attached.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID, sort string, limit, offset int) ([]model.Answer, error) {
	if strings.TrimSpace(questionID) == "" {
		return nil, apperror.ValidationFailed("questionId", "question ID is required")
	}

	answers, err := s.store.ListAnswersByQuestion(ctx, questionID, sort, clampList(limit, offset))
	if err != nil {
		return nil, err
	}

	// Question pages are small; per-author lookups with a local cache beat
	// complicating the repository with joins.
	authors := make(map[string]*model.User, len(answers))
	for i := range answers {
		author, ok := authors[answers[i].AuthorID]
		if !ok {
			author, err = s.store.GetUserByID(ctx, answers[i].AuthorID)
			if err != nil && !errors.Is(err, apperror.ErrNotFound) {
				return nil, err
			}
			authors[answers[i].AuthorID] = author
		}
		answers[i].Author = author
	}
	return answers, nil
}

// Delete removes an answer, its votes (walking back the reputation they
// granted), and decrements the question's answer count in one transaction.
// Only the author may delete.
func (s *AnswerService) Delete(ctx context.Context, userID, answerID string) error {
	answer, err := s.store.GetAnswerByID(ctx, answerID)
	if err != nil {
		return err
	}
	if answer.AuthorID != userID {
		return apperror.Forbidden("only the author can delete this answer")
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := removeVotesForTarget(ctx, tx, model.VoteTargetAnswer, answerID, answer.AuthorID); err != nil {
			return err
		}
		if err := tx.DeleteAnswer(ctx, answerID); err != nil {
			return err
		}
		return tx.AdjustAnswerCount(ctx, answer.QuestionID, -1)
	})
	if err != nil {
		return err
	}

	s.logger.Info("answer deleted",
		slog.String("id", answerID),
		slog.String("byUserID", userID),
	)
	return nil
}
