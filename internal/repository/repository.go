// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation.
package repository

import (
	"context"

	"github.com/gregsypek/devflow/internal/model"
)

// ListOptions is shared pagination input. Callers are expected to clamp
// Limit before it reaches a repository.
type ListOptions struct {
	Limit  int
	Offset int
}

// Question list sort orders.
const (
	SortNewest     = "newest"
	SortFrequent   = "frequent"   // most viewed
	SortUnanswered = "unanswered" // newest with zero answers
	SortTopVoted   = "highestUpvotes"

	// Tag list sort orders.
	SortPopular = "popular"
	SortName    = "name"
	SortRecent  = "recent"
)

// QuestionFilter narrows and orders a question list query.
type QuestionFilter struct {
	ListOptions
	Sort     string // SortNewest, SortFrequent, SortUnanswered
	Search   string // substring match on title
	TagID    string // only questions carrying this tag
	AuthorID string // only questions by this author
}

// TagFilter narrows and orders a tag list query.
type TagFilter struct {
	ListOptions
	Sort   string // SortPopular, SortName, SortRecent
	Search string // substring match on name
}

// UserRepository persists identity records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdateUserFields applies a partial update built from a field delta.
	// Keys are column names; an empty delta is a no-op.
	UpdateUserFields(ctx context.Context, id string, fields map[string]any) error
	AdjustReputation(ctx context.Context, id string, delta int) error
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
}

// AccountRepository persists linked authentication methods.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	// GetAccountByProvider looks up by the (provider, providerAccountID)
	// unique pair. Returns apperror.ErrNotFound when absent.
	GetAccountByProvider(ctx context.Context, provider, providerAccountID string) (*model.Account, error)
	GetAccountForUser(ctx context.Context, userID, provider string) (*model.Account, error)
}

// QuestionRepository persists questions and their denormalized counters.
type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestionByID(ctx context.Context, id string) (*model.Question, error)
	ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error)
	UpdateQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	AdjustQuestionVotes(ctx context.Context, id string, upDelta, downDelta int) error
	AdjustAnswerCount(ctx context.Context, id string, delta int) error
}

// AnswerRepository persists answers.
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, a *model.Answer) error
	GetAnswerByID(ctx context.Context, id string) (*model.Answer, error)
	ListAnswersByQuestion(ctx context.Context, questionID, sort string, opts ListOptions) ([]model.Answer, error)
	// AnswersForQuestion returns every answer on a question, unpaginated;
	// used by the question delete flow to clean up per-answer state.
	AnswersForQuestion(ctx context.Context, questionID string) ([]model.Answer, error)
	DeleteAnswer(ctx context.Context, id string) error
	AdjustAnswerVotes(ctx context.Context, id string, upDelta, downDelta int) error
}

// TagRepository persists tags and the question↔tag links.
type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	GetTagByName(ctx context.Context, name string) (*model.Tag, error)
	ListTags(ctx context.Context, f TagFilter) ([]model.Tag, error)
	AdjustTagQuestionCount(ctx context.Context, id string, delta int) error
	LinkQuestionTag(ctx context.Context, questionID, tagID string) error
	// UnlinkQuestionTags removes all links for a question and returns the
	// tag IDs that were linked, so counters can be decremented.
	UnlinkQuestionTags(ctx context.Context, questionID string) ([]string, error)
	TagsForQuestion(ctx context.Context, questionID string) ([]model.Tag, error)
}

// VoteRepository persists votes. At most one row exists per
// (user, targetType, targetID), backed by a unique index.
type VoteRepository interface {
	GetVote(ctx context.Context, userID, targetType, targetID string) (*model.Vote, error)
	CreateVote(ctx context.Context, v *model.Vote) error
	UpdateVoteKind(ctx context.Context, id, kind string) error
	DeleteVote(ctx context.Context, id string) error
	ListVotesForTarget(ctx context.Context, targetType, targetID string) ([]model.Vote, error)
	DeleteVotesForTarget(ctx context.Context, targetType, targetID string) error
}

// CollectionRepository persists saved-question bookmarks.
type CollectionRepository interface {
	GetCollection(ctx context.Context, userID, questionID string) (*model.Collection, error)
	CreateCollection(ctx context.Context, c *model.Collection) error
	DeleteCollection(ctx context.Context, id string) error
	ListCollections(ctx context.Context, userID string, opts ListOptions) ([]model.Collection, error)
}

// Store bundles every repository plus the transaction runner. Multi-step
// read-check-write sequences (sign-up, account linking, voting, question
// delete) run through InTx so they commit or abort as a unit.
type Store interface {
	UserRepository
	AccountRepository
	QuestionRepository
	AnswerRepository
	TagRepository
	VoteRepository
	CollectionRepository

	// InTx runs fn inside a single database transaction. The Store passed
	// to fn executes every call on that transaction. A non-nil error from
	// fn rolls the transaction back; otherwise it commits. Nested InTx
	// calls join the enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}
