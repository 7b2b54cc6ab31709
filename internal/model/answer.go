package model

import "time"

// Answer is a reply to a Question.
type Answer struct {
	ID         string    `json:"id"         db:"id"`
	QuestionID string    `json:"questionId" db:"question_id"`
	AuthorID   string    `json:"authorId"   db:"author_id"`
	Content    string    `json:"content"    db:"content"`
	Upvotes    int       `json:"upvotes"    db:"upvotes"`
	Downvotes  int       `json:"downvotes"  db:"downvotes"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`

	Author *User `json:"author,omitempty"`
}
