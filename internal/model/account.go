package model

import "time"

// Auth providers. ProviderCredentials marks password-based accounts; the
// other values name external OAuth identity sources.
const (
	ProviderCredentials = "credentials"
	ProviderGitHub      = "github"
	ProviderGoogle      = "google"
)

// Account is one linked authentication method for a User.
//
// Invariants (enforced by unique indexes and the transactional link flow):
//   - at most one Account per (provider, provider_account_id)
//   - at most one Account per (user_id, provider)
//
// For credentials accounts ProviderAccountID equals the user's email and
// PasswordHash holds the bcrypt hash. OAuth accounts store the provider's
// stable user identifier and no hash.
type Account struct {
	ID                string    `json:"id"                db:"id"`
	UserID            string    `json:"userId"            db:"user_id"`
	Provider          string    `json:"provider"          db:"provider"`
	ProviderAccountID string    `json:"providerAccountId" db:"provider_account_id"`
	PasswordHash      string    `json:"-"                 db:"password_hash"` // never serialized
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt"         db:"updated_at"`
}

// IsCredentials reports whether this account carries a password hash.
func (a *Account) IsCredentials() bool {
	return a.Provider == ProviderCredentials
}
