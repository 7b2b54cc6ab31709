package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

func newVoteFixture(t *testing.T) (*VoteService, repository.Store, *model.User, *model.Question) {
	t.Helper()
	store := newTestStore(t)
	author := seedUser(t, store, "ana", "ana@example.com")
	question := seedQuestion(t, store, author.ID)
	return NewVoteService(store, testLogger()), store, author, question
}

func TestCast_Upvote(t *testing.T) {
	svc, store, author, q := newVoteFixture(t)
	voter := seedUser(t, store, "bob", "bob@example.com")
	ctx := context.Background()

	state, err := svc.Cast(ctx, voter.ID, CastInput{
		TargetType: model.VoteTargetQuestion,
		TargetID:   q.ID,
		Kind:       model.VoteUp,
	})
	if err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	if state.Kind != model.VoteUp {
		t.Errorf("Kind = %q, want %q", state.Kind, model.VoteUp)
	}

	got, _ := store.GetQuestionByID(ctx, q.ID)
	if got.Upvotes != 1 || got.Downvotes != 0 {
		t.Errorf("counters = %d up / %d down, want 1/0", got.Upvotes, got.Downvotes)
	}

	user, _ := store.GetUserByID(ctx, author.ID)
	if user.Reputation != reputationUpvote {
		t.Errorf("author reputation = %d, want %d", user.Reputation, reputationUpvote)
	}
}

func TestCast_SameDirectionTogglesOff(t *testing.T) {
	svc, store, author, q := newVoteFixture(t)
	voter := seedUser(t, store, "bob", "bob@example.com")
	ctx := context.Background()

	in := CastInput{TargetType: model.VoteTargetQuestion, TargetID: q.ID, Kind: model.VoteUp}
	if _, err := svc.Cast(ctx, voter.ID, in); err != nil {
		t.Fatalf("first Cast() error = %v", err)
	}
	state, err := svc.Cast(ctx, voter.ID, in)
	if err != nil {
		t.Fatalf("second Cast() error = %v", err)
	}
	if state.Kind != "" {
		t.Errorf("Kind = %q, want empty after toggle-off", state.Kind)
	}

	got, _ := store.GetQuestionByID(ctx, q.ID)
	if got.Upvotes != 0 {
		t.Errorf("Upvotes = %d, want 0 after toggle-off", got.Upvotes)
	}
	user, _ := store.GetUserByID(ctx, author.ID)
	if user.Reputation != 0 {
		t.Errorf("reputation = %d, want 0 after the award is reversed", user.Reputation)
	}
}

func TestCast_OppositeDirectionFlips(t *testing.T) {
	svc, store, author, q := newVoteFixture(t)
	voter := seedUser(t, store, "bob", "bob@example.com")
	ctx := context.Background()

	if _, err := svc.Cast(ctx, voter.ID, CastInput{
		TargetType: model.VoteTargetQuestion, TargetID: q.ID, Kind: model.VoteUp,
	}); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}
	state, err := svc.Cast(ctx, voter.ID, CastInput{
		TargetType: model.VoteTargetQuestion, TargetID: q.ID, Kind: model.VoteDown,
	})
	if err != nil {
		t.Fatalf("flip Cast() error = %v", err)
	}
	if state.Kind != model.VoteDown {
		t.Errorf("Kind = %q, want %q", state.Kind, model.VoteDown)
	}

	got, _ := store.GetQuestionByID(ctx, q.ID)
	if got.Upvotes != 0 || got.Downvotes != 1 {
		t.Errorf("counters = %d up / %d down, want 0/1 after flip", got.Upvotes, got.Downvotes)
	}
	user, _ := store.GetUserByID(ctx, author.ID)
	if user.Reputation != reputationDownvote {
		t.Errorf("reputation = %d, want %d after flip", user.Reputation, reputationDownvote)
	}
}

func TestCast_SelfVoteForbidden(t *testing.T) {
	svc, _, author, q := newVoteFixture(t)

	_, err := svc.Cast(context.Background(), author.ID, CastInput{
		TargetType: model.VoteTargetQuestion,
		TargetID:   q.ID,
		Kind:       model.VoteUp,
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Cast() on own post error = %v, want ErrForbidden", err)
	}
}

func TestCast_OnAnswer(t *testing.T) {
	svc, store, _, q := newVoteFixture(t)
	answerer := seedUser(t, store, "bob", "bob@example.com")
	voter := seedUser(t, store, "eve", "eve@example.com")
	ctx := context.Background()

	answer := &model.Answer{QuestionID: q.ID, AuthorID: answerer.ID, Content: "A sufficiently long answer body."}
	if err := store.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("CreateAnswer() error = %v", err)
	}

	if _, err := svc.Cast(ctx, voter.ID, CastInput{
		TargetType: model.VoteTargetAnswer, TargetID: answer.ID, Kind: model.VoteDown,
	}); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}

	got, _ := store.GetAnswerByID(ctx, answer.ID)
	if got.Downvotes != 1 {
		t.Errorf("Downvotes = %d, want 1", got.Downvotes)
	}
	user, _ := store.GetUserByID(ctx, answerer.ID)
	if user.Reputation != reputationDownvote {
		t.Errorf("reputation = %d, want %d", user.Reputation, reputationDownvote)
	}
}

func TestCast_UnknownTarget(t *testing.T) {
	svc, store, _, _ := newVoteFixture(t)
	voter := seedUser(t, store, "bob", "bob@example.com")

	_, err := svc.Cast(context.Background(), voter.ID, CastInput{
		TargetType: model.VoteTargetQuestion,
		TargetID:   "missing",
		Kind:       model.VoteUp,
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Cast() on missing target error = %v, want ErrNotFound", err)
	}
}

func TestGetVoteState(t *testing.T) {
	svc, store, _, q := newVoteFixture(t)
	voter := seedUser(t, store, "bob", "bob@example.com")
	ctx := context.Background()

	state, err := svc.Get(ctx, voter.ID, model.VoteTargetQuestion, q.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state.Kind != "" {
		t.Errorf("Kind = %q, want empty before voting", state.Kind)
	}

	if _, err := svc.Cast(ctx, voter.ID, CastInput{
		TargetType: model.VoteTargetQuestion, TargetID: q.ID, Kind: model.VoteUp,
	}); err != nil {
		t.Fatalf("Cast() error = %v", err)
	}

	state, err = svc.Get(ctx, voter.ID, model.VoteTargetQuestion, q.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state.Kind != model.VoteUp {
		t.Errorf("Kind = %q, want %q", state.Kind, model.VoteUp)
	}
}
