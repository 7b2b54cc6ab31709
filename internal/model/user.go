// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an identity record. A user can sign in through several linked
// Accounts (credentials, GitHub, Google) but there is exactly one User row
// per email address.
//
// Username is stored in slug form (lowercase, URL-safe) and is unique, so it
// doubles as the public profile path segment. Name is the free-form display
// name shown next to posts.
type User struct {
	ID         string    `json:"id"         db:"id"`
	Name       string    `json:"name"       db:"name"`
	Username   string    `json:"username"   db:"username"`
	Email      string    `json:"email"      db:"email"`
	Bio        string    `json:"bio"        db:"bio"`
	Image      string    `json:"image"      db:"image"` // avatar URL, may be empty
	Location   string    `json:"location"   db:"location"`
	Portfolio  string    `json:"portfolio"  db:"portfolio"`  // personal website URL
	Reputation int       `json:"reputation" db:"reputation"` // earned through received votes
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}
