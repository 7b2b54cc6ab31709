// Package service contains the business logic layer: handlers parse HTTP,
// services enforce the rules and orchestrate the repositories, repositories
// talk to the database.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
	"github.com/gregsypek/devflow/internal/slug"
)

// AuthService owns the sign-up, sign-in, and account-linking flows.
//
// Both write flows run as one transaction through Store.InTx: the
// uniqueness checks, the inserts, and any profile update commit or abort
// as a unit. The unique indexes underneath turn check/insert races between
// concurrent requests into ErrConflict instead of duplicates.
type AuthService struct {
	store     repository.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		validate:  validator.New(),
		logger:    logger,
	}
}

// AuthResult bundles the resolved user with the issued session token so
// the handler can set the cookie and respond in one step.
//
// SessionPending is set when the account was committed but the token could
// not be issued: the data is durable, the caller just has to sign in. The
// sign-up transaction deliberately commits before session establishment,
// so this window is surfaced instead of rolled back.
type AuthResult struct {
	User           *model.User
	Token          string
	SessionPending bool
}

// SignUpInput is the credentials sign-up payload.
type SignUpInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignUp creates a User plus a "credentials" Account, atomically.
//
// Order inside the transaction: email uniqueness check, username
// uniqueness check, bcrypt hash, user insert, account insert. Any failure
// before commit leaves no trace; the session token is only generated after
// a successful commit.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	username := slug.Make(in.Username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username must contain letters or digits")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var user *model.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetUserByEmail(ctx, email); err == nil {
			return apperror.Conflict("User already exists")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		if _, err := tx.GetUserByUsername(ctx, username); err == nil {
			return apperror.Conflict("Username already taken")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		hash, err := s.passwords.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		user = &model.User{
			Name:     strings.TrimSpace(in.Name),
			Username: username,
			Email:    email,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		return tx.CreateAccount(ctx, &model.Account{
			UserID:            user.ID,
			Provider:          model.ProviderCredentials,
			ProviderAccountID: email,
			PasswordHash:      hash,
		})
	})
	if err != nil {
		return nil, s.flowError("sign-up", err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		// The user is committed; don't fail the whole request over the
		// session. The client is asked to sign in instead.
		s.logger.Error("session establishment failed after sign-up commit",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return &AuthResult{User: user, SessionPending: true}, nil
	}

	return &AuthResult{User: user, Token: token}, nil
}

// SignInInput is the credentials sign-in payload.
type SignInInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignIn verifies a password against the user's credentials account and
// issues a session token. Unknown email and wrong password return the
// same ErrUnauthorized message, so the endpoint doesn't reveal which
// emails are registered.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*AuthResult, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, s.flowError("sign-in", err)
	}

	account, err := s.store.GetAccountForUser(ctx, user.ID, model.ProviderCredentials)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// OAuth-only user; no password to check.
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, s.flowError("sign-in", err)
	}

	if err := s.passwords.Verify(account.PasswordHash, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, s.flowError("sign-in", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// SignInWithOAuth is the account link flow, called from the OAuth callback
// after the provider exchange. It ensures a User and a matching Account
// exist, linking them if not, all inside one transaction:
//
//  1. find the User by email, creating one from the profile if absent;
//  2. if found, diff the mutable profile fields (name, image) and apply a
//     partial update only when something actually changed;
//  3. find the Account by (provider, providerAccountID), creating it if
//     absent. Repeating the same sign-in is a no-op.
func (s *AuthService) SignInWithOAuth(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: profile must not be nil")
	}
	if profile.Email == "" {
		// Providers let users hide their email; without one we cannot
		// merge identities safely.
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("%s did not supply an email address; make it visible and retry", profile.Provider))
	}
	email := strings.ToLower(profile.Email)

	var user *model.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			user = &model.User{
				Name:     profile.Name,
				Username: s.pickUsername(ctx, tx, profile, email),
				Email:    email,
				Image:    profile.Image,
			}
			if user.Name == "" {
				user.Name = user.Username
			}
			if err := tx.CreateUser(ctx, user); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if delta := profileDelta(user, profile); len(delta) > 0 {
				if err := tx.UpdateUserFields(ctx, user.ID, delta); err != nil {
					return err
				}
				applyDelta(user, delta)
			}
		}

		account, err := tx.GetAccountByProvider(ctx, profile.Provider, profile.ProviderAccountID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			return tx.CreateAccount(ctx, &model.Account{
				UserID:            user.ID,
				Provider:          profile.Provider,
				ProviderAccountID: profile.ProviderAccountID,
			})
		case err != nil:
			return err
		case account.UserID != user.ID:
			// The provider identity is already bound to a different user
			// record. Refuse rather than silently re-linking.
			return apperror.Conflict("Account already linked to another user")
		}
		return nil
	})
	if err != nil {
		return nil, s.flowError("oauth link", err)
	}

	s.logger.Info("user authenticated via OAuth",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("session establishment failed after link commit",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return &AuthResult{User: user, SessionPending: true}, nil
	}

	return &AuthResult{User: user, Token: token}, nil
}

// pickUsername derives a unique slug username for a first-time OAuth user:
// the provider handle if present, else the email local part, with a random
// suffix when the base is already taken.
func (s *AuthService) pickUsername(ctx context.Context, tx repository.Store, profile *auth.Profile, email string) string {
	base := slug.Make(profile.Username)
	if base == "" {
		base = slug.Make(strings.SplitN(email, "@", 2)[0])
	}
	if base == "" {
		base = "user"
	}

	if _, err := tx.GetUserByUsername(ctx, base); errors.Is(err, apperror.ErrNotFound) {
		return base
	}
	// xid suffixes are effectively collision-free.
	return base + "-" + xid.New().String()[12:]
}

// profileDelta computes the field-level difference between the stored user
// and a fresh OAuth profile. Only non-empty incoming values count: a
// provider omitting a field must not blank it out.
func profileDelta(user *model.User, profile *auth.Profile) map[string]any {
	delta := make(map[string]any, 2)
	if profile.Name != "" && profile.Name != user.Name {
		delta["name"] = profile.Name
	}
	if profile.Image != "" && profile.Image != user.Image {
		delta["image"] = profile.Image
	}
	return delta
}

func applyDelta(user *model.User, delta map[string]any) {
	if name, ok := delta["name"].(string); ok {
		user.Name = name
	}
	if image, ok := delta["image"].(string); ok {
		user.Image = image
	}
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware validates the session token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.store.GetUserByID(ctx, id)
}

// ValidateToken validates a session token and returns the userID it
// encodes. Thin delegation so callers need only the service package.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", apperror.Unauthorized("invalid or expired session")
	}
	return userID, nil
}

// flowError passes typed application errors through untouched and wraps
// everything else as a transaction error: logged with the cause, shown to
// the caller as a generic message.
func (s *AuthService) flowError(flow string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.Error(flow+" transaction failed", slog.String("error", err.Error()))
	return apperror.Transaction(err)
}
