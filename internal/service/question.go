package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
	"github.com/gregsypek/devflow/internal/slug"
)

// Pagination bounds shared by the list endpoints.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	maxTagsPerQuestion = 3
)

// clampList normalizes raw limit/offset query values.
func clampList(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

// QuestionService handles asking, editing, deleting, and browsing
// questions, including the tag bookkeeping each of those implies.
type QuestionService struct {
	store    repository.Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewQuestionService(store repository.Store, logger *slog.Logger) *QuestionService {
	return &QuestionService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// AskInput is the payload for creating a question.
type AskInput struct {
	Title   string   `json:"title"   validate:"required,min=5,max=130"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags"    validate:"required,min=1,max=3,dive,min=1,max=30"`
}

// Ask creates a question with its tags in one transaction: the question
// insert, each tag find-or-create, the links, and the per-tag counters
// commit together.
func (s *QuestionService) Ask(ctx context.Context, authorID string, in AskInput) (*model.Question, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	tagNames, err := normalizeTagNames(in.Tags)
	if err != nil {
		return nil, err
	}

	question := &model.Question{
		AuthorID: authorID,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateQuestion(ctx, question); err != nil {
			return err
		}
		tags, err := attachTags(ctx, tx, question.ID, tagNames)
		if err != nil {
			return err
		}
		question.Tags = tags
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("question asked",
		slog.String("id", question.ID),
		slog.String("authorID", authorID),
	)
	return question, nil
}

// normalizeTagNames slugifies, de-duplicates, and bounds the tag list.
func normalizeTagNames(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		name := slug.Make(r)
		if name == "" {
			return nil, apperror.ValidationFailed("tags", fmt.Sprintf("invalid tag name %q", r))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 || len(names) > maxTagsPerQuestion {
		return nil, apperror.ValidationFailed("tags",
			fmt.Sprintf("between 1 and %d tags are required", maxTagsPerQuestion))
	}
	return names, nil
}

// attachTags finds or creates each tag, links it to the question, and
// bumps its question count. Must run inside the caller's transaction.
func attachTags(ctx context.Context, tx repository.Store, questionID string, names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := tx.GetTagByName(ctx, name)
		if errors.Is(err, apperror.ErrNotFound) {
			tag = &model.Tag{Name: name}
			if err := tx.CreateTag(ctx, tag); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		if err := tx.LinkQuestionTag(ctx, questionID, tag.ID); err != nil {
			return nil, err
		}
		if err := tx.AdjustTagQuestionCount(ctx, tag.ID, 1); err != nil {
			return nil, err
		}
		tag.QuestionCount++
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Get returns a question with its tags and author, bumping the view
// counter. The bump is best-effort ordering-wise but still a single
// UPDATE, so concurrent reads never lose counts.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "question ID is required")
	}

	question, err := s.store.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.IncrementViews(ctx, id); err != nil {
		// A lost view count is not worth failing the read.
		s.logger.Warn("incrementing views failed", slog.String("id", id), slog.String("error", err.Error()))
	} else {
		question.Views++
	}

	if question.Tags, err = s.store.TagsForQuestion(ctx, id); err != nil {
		return nil, err
	}
	if question.Author, err = s.store.GetUserByID(ctx, question.AuthorID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	return question, nil
}

// ListFilter is the browse input from query parameters.
type ListFilter struct {
	Sort     string
	Search   string
	TagID    string
	AuthorID string
	Limit    int
	Offset   int
}

// List returns questions with their tags attached.
func (s *QuestionService) List(ctx context.Context, f ListFilter) ([]model.Question, error) {
	questions, err := s.store.ListQuestions(ctx, repository.QuestionFilter{
		ListOptions: clampList(f.Limit, f.Offset),
		Sort:        f.Sort,
		Search:      strings.TrimSpace(f.Search),
		TagID:       f.TagID,
		AuthorID:    f.AuthorID,
	})
	if err != nil {
		return nil, err
	}

	for i := range questions {
		if questions[i].Tags, err = s.store.TagsForQuestion(ctx, questions[i].ID); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// EditInput is the payload for editing a question.
type EditInput struct {
	Title   string `json:"title"   validate:"required,min=5,max=130"`
	Content string `json:"content" validate:"required,min=20"`
}

// Edit updates title and content. Only the author may edit.
func (s *QuestionService) Edit(ctx context.Context, userID, questionID string, in EditInput) (*model.Question, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	question, err := s.store.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != userID {
		return nil, apperror.Forbidden("only the author can edit this question")
	}

	question.Title = strings.TrimSpace(in.Title)
	question.Content = in.Content
	if err := s.store.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}

	if question.Tags, err = s.store.TagsForQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes a question and everything hanging off it. Tag counters
// and the votes on the question and on each of its answers are cleaned up
// in the same transaction, with the reputation those votes granted walked
// back; the answer rows themselves, links, and collection entries cascade
// at the storage layer.
func (s *QuestionService) Delete(ctx context.Context, userID, questionID string) error {
	question, err := s.store.GetQuestionByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.AuthorID != userID {
		return apperror.Forbidden("only the author can delete this question")
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		tagIDs, err := tx.UnlinkQuestionTags(ctx, questionID)
		if err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if err := tx.AdjustTagQuestionCount(ctx, tagID, -1); err != nil {
				return err
			}
		}
		answers, err := tx.AnswersForQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		for _, a := range answers {
			if err := removeVotesForTarget(ctx, tx, model.VoteTargetAnswer, a.ID, a.AuthorID); err != nil {
				return err
			}
		}
		if err := removeVotesForTarget(ctx, tx, model.VoteTargetQuestion, questionID, question.AuthorID); err != nil {
			return err
		}
		return tx.DeleteQuestion(ctx, questionID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("question deleted",
		slog.String("id", questionID),
		slog.String("byUserID", userID),
	)
	return nil
}
