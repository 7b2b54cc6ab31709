package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

// TagService exposes the tag directory. Tags are only created through
// QuestionService.Ask, so this service is read-only.
type TagService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewTagService(store repository.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// TagListFilter is the browse input from query parameters.
type TagListFilter struct {
	Sort   string
	Search string
	Limit  int
	Offset int
}

func (s *TagService) List(ctx context.Context, f TagListFilter) ([]model.Tag, error) {
	return s.store.ListTags(ctx, repository.TagFilter{
		ListOptions: clampList(f.Limit, f.Offset),
		Sort:        f.Sort,
		Search:      strings.TrimSpace(f.Search),
	})
}

func (s *TagService) Get(ctx context.Context, id string) (*model.Tag, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "tag ID is required")
	}
	return s.store.GetTagByID(ctx, id)
}
