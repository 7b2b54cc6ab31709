package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/model"
)

func TestSignUp(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Ana Kos",
		Username: "Ana Kos",
		Email:    "Ana@Example.COM",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if result.User.Username != "ana-kos" {
		t.Errorf("Username = %q, want slug %q", result.User.Username, "ana-kos")
	}
	if result.User.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased", result.User.Email)
	}
	if result.SessionPending {
		t.Error("SessionPending = true, want an issued token")
	}
	if userID, err := svc.ValidateToken(result.Token); err != nil || userID != result.User.ID {
		t.Errorf("issued token does not validate to the new user: %v", err)
	}

	// The credentials account must exist alongside the user.
	account, err := store.GetAccountForUser(ctx, result.User.ID, model.ProviderCredentials)
	if err != nil {
		t.Fatalf("GetAccountForUser() error = %v", err)
	}
	if account.PasswordHash == "" {
		t.Error("credentials account has no password hash")
	}
	if account.ProviderAccountID != "ana@example.com" {
		t.Errorf("ProviderAccountID = %q, want the email", account.ProviderAccountID)
	}
}

func TestSignUp_ValidationFailure(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Name:     "A",
		Username: "ana",
		Email:    "not-an-email",
		Password: "short",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("SignUp() error = %v, want ErrValidation", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is not an AppError: %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if appErr.Fields[field] == "" {
			t.Errorf("missing field message for %q: %v", field, appErr.Fields)
		}
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, store, "existing", "taken@example.com")

	_, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Second User",
		Username: "second",
		Email:    "taken@example.com",
		Password: "long enough password",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("SignUp() error = %v, want ErrConflict", err)
	}

	// The aborted transaction must leave nothing behind.
	if _, err := store.GetUserByUsername(ctx, "second"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user row survived the rolled-back sign-up: %v", err)
	}
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, store, "ana", "first@example.com")

	_, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Other Ana",
		Username: "Ana", // slugs to the taken "ana"
		Email:    "second@example.com",
		Password: "long enough password",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("SignUp() error = %v, want ErrConflict", err)
	}
	if _, err := store.GetUserByEmail(ctx, "second@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user row survived the rolled-back sign-up: %v", err)
	}
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Ana Kos",
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	result, err := svc.SignIn(ctx, SignInInput{
		Email:    "ANA@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if result.Token == "" {
		t.Error("SignIn() issued no token")
	}
}

func TestSignIn_BadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Ana Kos",
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	tests := []struct {
		name  string
		input SignInInput
	}{
		{"unknown email", SignInInput{Email: "nobody@example.com", Password: "whatever else"}},
		{"wrong password", SignInInput{Email: "ana@example.com", Password: "incorrect horse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(ctx, tt.input)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("SignIn() error = %v, want ErrUnauthorized", err)
			}
			// Both failures must read identically.
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Message != "invalid email or password" {
				t.Errorf("Message = %q, leaks which part failed", appErr.Message)
			}
		})
	}
}

func TestSignIn_OAuthOnlyUser(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ghuser", "gh@example.com")
	if err := store.CreateAccount(ctx, &model.Account{
		UserID:            user.ID,
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
	}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	_, err := svc.SignIn(ctx, SignInInput{Email: "gh@example.com", Password: "anything at all"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("SignIn() error = %v, want ErrUnauthorized", err)
	}
}

func TestSignInWithOAuth_CreatesUserAndAccount(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	result, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Kos",
		Username:          "anakos",
		Email:             "Ana@Example.com",
		Image:             "https://avatars.example.com/ana.png",
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}

	if result.User.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased", result.User.Email)
	}
	if result.User.Username != "anakos" {
		t.Errorf("Username = %q, want %q", result.User.Username, "anakos")
	}
	if result.Token == "" {
		t.Error("no session token issued")
	}

	account, err := store.GetAccountByProvider(ctx, model.ProviderGitHub, "12345")
	if err != nil {
		t.Fatalf("GetAccountByProvider() error = %v", err)
	}
	if account.UserID != result.User.ID {
		t.Errorf("account linked to %q, want %q", account.UserID, result.User.ID)
	}
}

func TestSignInWithOAuth_Idempotent(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	profile := &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Kos",
		Username:          "anakos",
		Email:             "ana@example.com",
	}

	first, err := svc.SignInWithOAuth(ctx, profile)
	if err != nil {
		t.Fatalf("first SignInWithOAuth() error = %v", err)
	}
	second, err := svc.SignInWithOAuth(ctx, profile)
	if err != nil {
		t.Fatalf("second SignInWithOAuth() error = %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Errorf("repeat sign-in resolved a different user: %q vs %q", first.User.ID, second.User.ID)
	}
}

func TestSignInWithOAuth_LinksExistingUser(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	// Credentials user signs in with GitHub using the same email.
	signup, err := svc.SignUp(ctx, SignUpInput{
		Name:     "Ana Kos",
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	result, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Kos",
		Email:             "ana@example.com",
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	if result.User.ID != signup.User.ID {
		t.Fatalf("OAuth created a new user instead of linking: %q vs %q", result.User.ID, signup.User.ID)
	}

	// Both accounts now hang off the one user.
	if _, err := store.GetAccountForUser(ctx, signup.User.ID, model.ProviderCredentials); err != nil {
		t.Errorf("credentials account missing: %v", err)
	}
	if _, err := store.GetAccountForUser(ctx, signup.User.ID, model.ProviderGitHub); err != nil {
		t.Errorf("github account missing: %v", err)
	}
}

func TestSignInWithOAuth_UpdatesChangedProfileFields(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ana", "ana@example.com")

	result, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Renamed",
		Email:             "ana@example.com",
		Image:             "https://avatars.example.com/new.png",
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	if result.User.ID != user.ID {
		t.Fatalf("resolved wrong user")
	}

	got, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Ana Renamed" {
		t.Errorf("Name = %q, want the refreshed profile name", got.Name)
	}
	if got.Image != "https://avatars.example.com/new.png" {
		t.Errorf("Image = %q, want the refreshed avatar", got.Image)
	}
	// Username is user-chosen and must never be touched by the delta.
	if got.Username != "ana" {
		t.Errorf("Username = %q, must not change on OAuth sign-in", got.Username)
	}
}

func TestSignInWithOAuth_EmptyProviderFieldsKeepStoredValues(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	user := seedUser(t, store, "ana", "ana@example.com")

	if _, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Email:             "ana@example.com",
		// Name and Image deliberately empty.
	}); err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}

	got, _ := store.GetUserByID(ctx, user.ID)
	if got.Name != "Test User" {
		t.Errorf("Name = %q, empty provider field must not blank it", got.Name)
	}
}

func TestSignInWithOAuth_AccountBoundToOtherUser(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	other := seedUser(t, store, "other", "other@example.com")
	if err := store.CreateAccount(ctx, &model.Account{
		UserID:            other.ID,
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
	}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	// Same provider identity arrives with a different email, resolving to
	// a different user. Linking must be refused.
	_, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Kos",
		Email:             "ana@example.com",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("SignInWithOAuth() error = %v, want ErrConflict", err)
	}
}

func TestSignInWithOAuth_MissingEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.SignInWithOAuth(context.Background(), &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Name:              "Ana Kos",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("SignInWithOAuth() error = %v, want ErrValidation", err)
	}
}

func TestSignInWithOAuth_UsernameCollisionGetsSuffix(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	seedUser(t, store, "anakos", "first@example.com")

	result, err := svc.SignInWithOAuth(ctx, &auth.Profile{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "12345",
		Username:          "anakos",
		Email:             "second@example.com",
	})
	if err != nil {
		t.Fatalf("SignInWithOAuth() error = %v", err)
	}
	if result.User.Username == "anakos" {
		t.Error("colliding username was not suffixed")
	}
	if got := result.User.Username; len(got) <= len("anakos-") {
		t.Errorf("Username = %q, want base plus suffix", got)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("ValidateToken() error = %v, want ErrUnauthorized", err)
	}
}
