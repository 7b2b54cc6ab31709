package model

import "time"

// Tag labels questions by topic. Name is stored in slug form and is unique;
// QuestionCount is maintained in the same transaction that links or unlinks
// a question.
type Tag struct {
	ID            string    `json:"id"            db:"id"`
	Name          string    `json:"name"          db:"name"`
	QuestionCount int       `json:"questionCount" db:"question_count"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}
