package model

import "time"

// Collection is a saved-question bookmark, unique per (user, question).
type Collection struct {
	ID         string    `json:"id"         db:"id"`
	UserID     string    `json:"userId"     db:"user_id"`
	QuestionID string    `json:"questionId" db:"question_id"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`

	Question *Question `json:"question,omitempty"`
}
