package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
	"github.com/gregsypek/devflow/internal/repository/sqlite"
)

// newTestStore opens a throwaway in-memory database so service tests run
// against the real transaction semantics.
func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(t *testing.T) (*AuthService, repository.Store) {
	t.Helper()
	store := newTestStore(t)
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	return NewAuthService(store, tokens, passwords, testLogger()), store
}

func seedUser(t *testing.T, store repository.Store, username, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "Test User", Username: username, Email: email}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedQuestion(t *testing.T, store repository.Store, authorID string) *model.Question {
	t.Helper()
	q := &model.Question{
		AuthorID: authorID,
		Title:    "How do goroutines get scheduled?",
		Content:  "I would like to understand the scheduler in some detail.",
	}
	if err := store.CreateQuestion(context.Background(), q); err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	return q
}
