package model

import "time"

// Question is a post asking for help. Tags are attached through a join
// table; the denormalized counters (Views, Upvotes, Downvotes, AnswerCount)
// are maintained transactionally alongside the rows they summarize so list
// pages never need aggregate queries.
type Question struct {
	ID          string    `json:"id"          db:"id"`
	AuthorID    string    `json:"authorId"    db:"author_id"`
	Title       string    `json:"title"       db:"title"`
	Content     string    `json:"content"     db:"content"` // markdown body
	Views       int64     `json:"views"       db:"views"`
	Upvotes     int       `json:"upvotes"     db:"upvotes"`
	Downvotes   int       `json:"downvotes"   db:"downvotes"`
	AnswerCount int       `json:"answerCount" db:"answer_count"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`

	// Populated on reads, not stored on the questions row itself.
	Tags   []Tag `json:"tags,omitempty"`
	Author *User `json:"author,omitempty"`
}
