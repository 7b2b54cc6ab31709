package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
)

const accountColumns = `id, user_id, provider, provider_account_id, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Provider,
		&a.ProviderAccountID,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a linked account. The unique indexes on
// (provider, provider_account_id) and (user_id, provider) turn races
// between concurrent link flows into apperror.ErrConflict.
func (d *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, provider, provider_account_id, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.UserID,
		account.Provider,
		account.ProviderAccountID,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Account already linked")
		}
		return fmt.Errorf("sqlite: inserting account (provider=%s): %w", account.Provider, err)
	}
	return nil
}

// GetAccountByProvider looks up the (provider, providerAccountID) pair.
func (d *DB) GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*model.Account, error) {
	a, err := scanAccount(d.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider = ? AND provider_account_id = ?`,
		provider, providerAccountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", provider+":"+providerAccountID)
		}
		return nil, fmt.Errorf("sqlite: getting account %s:%s: %w", provider, providerAccountID, err)
	}
	return a, nil
}

// GetAccountForUser returns a user's account for one provider, e.g. the
// credentials account holding their password hash.
func (d *DB) GetAccountForUser(ctx context.Context, userID, provider string) (*model.Account, error) {
	a, err := scanAccount(d.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND provider = ?`,
		userID, provider))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", provider+" for user "+userID)
		}
		return nil, fmt.Errorf("sqlite: getting %s account for user %s: %w", provider, userID, err)
	}
	return a, nil
}
