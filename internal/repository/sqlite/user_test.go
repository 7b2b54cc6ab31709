package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

// createTestUser inserts a user and fails the test on error.
func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     "Test " + username,
		Username: username,
		Email:    email,
		Image:    "https://example.com/avatar.png",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Name: "Ana", Username: "ana", Email: "a@x.com"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "first", "dup@x.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name: "Second", Username: "second", Email: "dup@x.com",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_DuplicateUsernameIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken", "one@x.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name: "Second", Username: "taken", Email: "two@x.com",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "ana", "a@x.com")

	got, err := db.GetUserByUsername(context.Background(), "ana")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
}

func TestUpdateUserFields_PartialUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ana", "a@x.com")

	err := db.UpdateUserFields(context.Background(), user.ID, map[string]any{
		"name":  "Ana Nova",
		"image": "https://example.com/new.png",
	})
	if err != nil {
		t.Fatalf("UpdateUserFields() error = %v", err)
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "Ana Nova" {
		t.Errorf("Name = %q, want %q", got.Name, "Ana Nova")
	}
	if got.Image != "https://example.com/new.png" {
		t.Errorf("Image = %q", got.Image)
	}
	// Untouched fields keep their values.
	if got.Email != "a@x.com" {
		t.Errorf("Email changed unexpectedly: %q", got.Email)
	}
}

func TestUpdateUserFields_EmptyDeltaIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ana", "a@x.com")

	if err := db.UpdateUserFields(context.Background(), user.ID, nil); err != nil {
		t.Fatalf("UpdateUserFields(nil) error = %v", err)
	}
}

func TestUpdateUserFields_RejectsUnknownColumn(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ana", "a@x.com")

	err := db.UpdateUserFields(context.Background(), user.ID, map[string]any{
		"email": "evil@x.com", // email is not updatable through the delta path
	})
	if err == nil {
		t.Fatal("UpdateUserFields() should reject non-updatable columns")
	}
}

func TestAdjustReputation(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "ana", "a@x.com")

	if err := db.AdjustReputation(context.Background(), user.ID, 10); err != nil {
		t.Fatalf("AdjustReputation() error = %v", err)
	}
	if err := db.AdjustReputation(context.Background(), user.ID, -2); err != nil {
		t.Fatalf("AdjustReputation() error = %v", err)
	}

	got, _ := db.GetUserByID(context.Background(), user.ID)
	if got.Reputation != 8 {
		t.Errorf("Reputation = %d, want 8", got.Reputation)
	}
}

func TestListUsers_OrderedByReputation(t *testing.T) {
	db := newTestDB(t)
	low := createTestUser(t, db, "low", "low@x.com")
	high := createTestUser(t, db, "high", "high@x.com")
	_ = low

	if err := db.AdjustReputation(context.Background(), high.ID, 50); err != nil {
		t.Fatalf("AdjustReputation() error = %v", err)
	}

	users, err := db.ListUsers(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].Username != "high" {
		t.Errorf("users[0].Username = %q, want %q", users[0].Username, "high")
	}
}
