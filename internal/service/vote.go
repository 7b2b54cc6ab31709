package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

// Reputation deltas awarded to a post's author when their post is voted
// on. Removing or flipping a vote reverses them.
const (
	reputationUpvote   = 10
	reputationDownvote = -2
)

// VoteService implements toggle-style voting: casting the same direction
// twice removes the vote, casting the opposite direction flips it. The
// vote row, the target's counters, and the author's reputation move in
// one transaction.
type VoteService struct {
	store    repository.Store
	validate *validator.Validate
	logger   *slog.Logger
}

func NewVoteService(store repository.Store, logger *slog.Logger) *VoteService {
	return &VoteService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

// CastInput identifies the target and direction of a vote.
type CastInput struct {
	TargetType string `json:"targetType" validate:"required,oneof=question answer"`
	TargetID   string `json:"targetId"   validate:"required"`
	Kind       string `json:"kind"       validate:"required,oneof=upvote downvote"`
}

// VoteState is what the caller ends up with after a cast: Kind is the
// user's current vote on the target, empty when the cast removed it.
type VoteState struct {
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Kind       string `json:"kind"`
}

// Cast applies one vote action for userID.
func (s *VoteService) Cast(ctx context.Context, userID string, in CastInput) (*VoteState, error) {
	if err := checkStruct(s.validate, in); err != nil {
		return nil, err
	}

	state := &VoteState{TargetType: in.TargetType, TargetID: in.TargetID}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		authorID, err := targetAuthor(ctx, tx, in.TargetType, in.TargetID)
		if err != nil {
			return err
		}
		if authorID == userID {
			return apperror.Forbidden("you cannot vote on your own post")
		}

		existing, err := tx.GetVote(ctx, userID, in.TargetType, in.TargetID)
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			if err := tx.CreateVote(ctx, &model.Vote{
				UserID:     userID,
				TargetType: in.TargetType,
				TargetID:   in.TargetID,
				Kind:       in.Kind,
			}); err != nil {
				return err
			}
			state.Kind = in.Kind
			if err := adjustVoteCounters(ctx, tx, in.TargetType, in.TargetID, in.Kind, 1); err != nil {
				return err
			}
			return tx.AdjustReputation(ctx, authorID, reputationFor(in.Kind))

		case err != nil:
			return err

		case existing.Kind == in.Kind:
			// Same direction again: the vote toggles off.
			if err := tx.DeleteVote(ctx, existing.ID); err != nil {
				return err
			}
			if err := adjustVoteCounters(ctx, tx, in.TargetType, in.TargetID, in.Kind, -1); err != nil {
				return err
			}
			return tx.AdjustReputation(ctx, authorID, -reputationFor(in.Kind))

		default:
			// Opposite direction: the vote flips.
			if err := tx.UpdateVoteKind(ctx, existing.ID, in.Kind); err != nil {
				return err
			}
			state.Kind = in.Kind
			if err := adjustVoteCounters(ctx, tx, in.TargetType, in.TargetID, existing.Kind, -1); err != nil {
				return err
			}
			if err := adjustVoteCounters(ctx, tx, in.TargetType, in.TargetID, in.Kind, 1); err != nil {
				return err
			}
			return tx.AdjustReputation(ctx, authorID, reputationFor(in.Kind)-reputationFor(existing.Kind))
		}
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote cast",
		slog.String("userID", userID),
		slog.String("targetType", in.TargetType),
		slog.String("targetID", in.TargetID),
		slog.String("kind", state.Kind),
	)
	return state, nil
}

// Get returns the caller's current vote on a target, with an empty Kind
// when no vote exists.
func (s *VoteService) Get(ctx context.Context, userID, targetType, targetID string) (*VoteState, error) {
	state := &VoteState{TargetType: targetType, TargetID: targetID}
	vote, err := s.store.GetVote(ctx, userID, targetType, targetID)
	if errors.Is(err, apperror.ErrNotFound) {
		return state, nil
	}
	if err != nil {
		return nil, err
	}
	state.Kind = vote.Kind
	return state, nil
}

func targetAuthor(ctx context.Context, tx repository.Store, targetType, targetID string) (string, error) {
	switch targetType {
	case model.VoteTargetQuestion:
		q, err := tx.GetQuestionByID(ctx, targetID)
		if err != nil {
			return "", err
		}
		return q.AuthorID, nil
	case model.VoteTargetAnswer:
		a, err := tx.GetAnswerByID(ctx, targetID)
		if err != nil {
			return "", err
		}
		return a.AuthorID, nil
	default:
		return "", apperror.ValidationFailed("targetType", "targetType must be one of: question answer")
	}
}

func adjustVoteCounters(ctx context.Context, tx repository.Store, targetType, targetID, kind string, delta int) error {
	up, down := 0, 0
	if kind == model.VoteUp {
		up = delta
	} else {
		down = delta
	}
	if targetType == model.VoteTargetQuestion {
		return tx.AdjustQuestionVotes(ctx, targetID, up, down)
	}
	return tx.AdjustAnswerVotes(ctx, targetID, up, down)
}

func reputationFor(kind string) int {
	if kind == model.VoteUp {
		return reputationUpvote
	}
	return reputationDownvote
}

// removeVotesForTarget deletes every vote on a post and walks back the
// reputation those votes granted its author. Must run inside the caller's
// transaction; the votes table has no foreign key to posts, so nothing
// else cleans these rows up.
func removeVotesForTarget(ctx context.Context, tx repository.Store, targetType, targetID, authorID string) error {
	votes, err := tx.ListVotesForTarget(ctx, targetType, targetID)
	if err != nil {
		return err
	}
	delta := 0
	for _, v := range votes {
		delta += reputationFor(v.Kind)
	}
	if delta != 0 {
		if err := tx.AdjustReputation(ctx, authorID, -delta); err != nil {
			return err
		}
	}
	return tx.DeleteVotesForTarget(ctx, targetType, targetID)
}
