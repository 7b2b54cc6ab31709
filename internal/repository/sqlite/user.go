package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

const userColumns = `id, name, username, email, bio, image, location, portfolio, reputation, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.Bio,
		&u.Image,
		&u.Location,
		&u.Portfolio,
		&u.Reputation,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user, generating the ID and timestamps in place.
// Duplicate email or username surfaces as apperror.ErrConflict — the
// unique indexes back up the checks the sign-up flow already performed.
func (d *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, name, username, email, bio, image, location, portfolio, reputation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Username,
		user.Email,
		user.Bio,
		user.Image,
		user.Location,
		user.Portfolio,
		user.Reputation,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already exists")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound when no row matches.
func (d *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

func (d *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username: %w", err)
	}
	return u, nil
}

// allowed column names for UpdateUserFields; the SET clause is built by
// string concatenation, so everything else is rejected.
var updatableUserColumns = map[string]bool{
	"name":      true,
	"username":  true,
	"bio":       true,
	"image":     true,
	"location":  true,
	"portfolio": true,
}

// UpdateUserFields applies a partial update. The field delta is computed by
// the caller (e.g. the OAuth link flow diffing profile fields); an empty
// delta performs no write at all.
func (d *DB) UpdateUserFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	// Deterministic column order keeps the generated SQL stable.
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatableUserColumns[col] {
			return fmt.Errorf("sqlite: refusing to update user column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := d.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Username already taken")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// AdjustReputation adds delta (possibly negative) to a user's reputation.
func (d *DB) AdjustReputation(ctx context.Context, id string, delta int) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE users SET reputation = reputation + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting reputation for user %s: %w", id, err)
	}
	return nil
}

// ListUsers returns users ordered by reputation, then join date.
func (d *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY reputation DESC, created_at DESC
		 LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, opts.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}
