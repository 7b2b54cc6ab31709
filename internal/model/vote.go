package model

import "time"

// Vote targets and directions. A vote row is unique per
// (user_id, target_type, target_id); casting the same direction twice
// removes the vote, casting the opposite direction flips it.
const (
	VoteTargetQuestion = "question"
	VoteTargetAnswer   = "answer"

	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Vote records one user's vote on a question or answer.
type Vote struct {
	ID         string    `json:"id"         db:"id"`
	UserID     string    `json:"userId"     db:"user_id"`
	TargetType string    `json:"targetType" db:"target_type"`
	TargetID   string    `json:"targetId"   db:"target_id"`
	Kind       string    `json:"kind"       db:"kind"` // VoteUp or VoteDown
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}
