// Package ai drafts answers to questions using an external language
// model. The Generator interface keeps the rest of the application
// independent of which provider is configured.
package ai

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no generator is configured, typically
// because the API key is absent. Handlers map it to 503.
var ErrUnavailable = errors.New("ai: answer drafting is not configured")

// DraftRequest carries the question being answered plus optional user
// guidance to steer the draft.
type DraftRequest struct {
	QuestionTitle   string `json:"questionTitle"`
	QuestionContent string `json:"questionContent"`
	Guidance        string `json:"guidance,omitempty"`
}

// Draft is a generated answer candidate. It is never stored; the user
// reviews and submits it as their own answer.
type Draft struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Generator produces answer drafts.
type Generator interface {
	Draft(ctx context.Context, req DraftRequest) (*Draft, error)
}

// Disabled is a Generator that always reports ErrUnavailable. Used when
// no API key is configured, so callers need no nil checks.
type Disabled struct{}

func (Disabled) Draft(context.Context, DraftRequest) (*Draft, error) {
	return nil, ErrUnavailable
}
