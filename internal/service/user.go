package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
	"github.com/gregsypek/devflow/internal/slug"
)

// UserService handles public profiles and profile editing.
type UserService struct {
	store    repository.Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.store.GetUserByID(ctx, id)
}

// List returns the community page: users ordered by reputation.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	return s.store.ListUsers(ctx, clampList(limit, offset))
}

// UpdateProfileInput carries optional profile edits; empty strings mean
// "leave unchanged" except Bio/Location/Portfolio, which the omitempty
// pointer distinguishes from clearing.
type UpdateProfileInput struct {
	Name      string  `json:"name"      validate:"omitempty,min=2,max=50"`
	Username  string  `json:"username"  validate:"omitempty,min=3,max=30"`
	Bio       *string `json:"bio"       validate:"omitempty,max=500"`
	Image     string  `json:"image"     validate:"omitempty,url"`
	Location  *string `json:"location"  validate:"omitempty,max=100"`
	Portfolio *string `json:"portfolio" validate:"omitempty,url"`
}

// UpdateProfile applies a partial update to the caller's own profile.
// Only the provided fields are written; a username change goes through
// slug normalization and can fail with ErrConflict.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	delta := make(map[string]any, 6)
	if in.Name != "" {
		delta["name"] = strings.TrimSpace(in.Name)
	}
	if in.Username != "" {
		username := slug.Make(in.Username)
		if username == "" {
			return nil, apperror.ValidationFailed("username", "username must contain letters or digits")
		}
		delta["username"] = username
	}
	if in.Image != "" {
		delta["image"] = in.Image
	}
	if in.Bio != nil {
		delta["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		delta["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Portfolio != nil {
		delta["portfolio"] = *in.Portfolio
	}

	if len(delta) > 0 {
		if err := s.store.UpdateUserFields(ctx, userID, delta); err != nil {
			return nil, err
		}
		s.logger.Info("profile updated", slog.String("userID", userID))
	}

	return s.store.GetUserByID(ctx, userID)
}
