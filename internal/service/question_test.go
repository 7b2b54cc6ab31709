package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
)

func newTestQuestionService(t *testing.T) (*QuestionService, *model.User) {
	t.Helper()
	store := newTestStore(t)
	user := seedUser(t, store, "ana", "ana@example.com")
	return NewQuestionService(store, testLogger()), user
}

func TestAsk(t *testing.T) {
	svc, user := newTestQuestionService(t)
	ctx := context.Background()

	q, err := svc.Ask(ctx, user.ID, AskInput{
		Title:   "How do Go slices grow?",
		Content: "I keep appending and the capacity seems to double, then not.",
		Tags:    []string{"Go", "go", "Memory Management"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	// "Go" and "go" slugify to the same tag.
	if len(q.Tags) != 2 {
		t.Fatalf("len(Tags) = %d, want 2 after de-duplication", len(q.Tags))
	}
	if q.Tags[0].Name != "go" || q.Tags[1].Name != "memory-management" {
		t.Errorf("tag names = %q, %q; want slugs", q.Tags[0].Name, q.Tags[1].Name)
	}
	for _, tag := range q.Tags {
		if tag.QuestionCount != 1 {
			t.Errorf("tag %q QuestionCount = %d, want 1", tag.Name, tag.QuestionCount)
		}
	}
}

func TestAsk_ReusesExistingTags(t *testing.T) {
	svc, user := newTestQuestionService(t)
	ctx := context.Background()

	first, err := svc.Ask(ctx, user.ID, AskInput{
		Title:   "How do Go slices grow?",
		Content: "Long enough content for the validator to accept here.",
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	second, err := svc.Ask(ctx, user.ID, AskInput{
		Title:   "Are Go maps ordered at all?",
		Content: "Iteration order looks random to me across several runs.",
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if first.Tags[0].ID != second.Tags[0].ID {
		t.Error("second question created a duplicate tag instead of reusing it")
	}
	if second.Tags[0].QuestionCount != 2 {
		t.Errorf("QuestionCount = %d, want 2", second.Tags[0].QuestionCount)
	}
}

func TestAsk_TooManyTags(t *testing.T) {
	svc, user := newTestQuestionService(t)

	_, err := svc.Ask(context.Background(), user.ID, AskInput{
		Title:   "A question with too many tags attached",
		Content: "Long enough content for the validator to accept here.",
		Tags:    []string{"a", "b", "c", "d"},
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Ask() error = %v, want ErrValidation", err)
	}
}

func TestGet_BumpsViews(t *testing.T) {
	store := newTestStore(t)
	user := seedUser(t, store, "ana", "ana@example.com")
	svc := NewQuestionService(store, testLogger())
	ctx := context.Background()

	q, err := svc.Ask(ctx, user.ID, AskInput{
		Title:   "How do Go slices grow?",
		Content: "Long enough content for the validator to accept here.",
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	got, err := svc.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Views != 1 {
		t.Errorf("Views = %d, want 1 after first read", got.Views)
	}
	if got.Author == nil || got.Author.ID != user.ID {
		t.Error("author not attached")
	}
	if len(got.Tags) != 1 {
		t.Errorf("len(Tags) = %d, want 1", len(got.Tags))
	}
}

func TestEdit_OnlyAuthor(t *testing.T) {
	store := newTestStore(t)
	author := seedUser(t, store, "ana", "ana@example.com")
	intruder := seedUser(t, store, "bob", "bob@example.com")
	svc := NewQuestionService(store, testLogger())
	ctx := context.Background()

	q := seedQuestion(t, store, author.ID)

	_, err := svc.Edit(ctx, intruder.ID, q.ID, EditInput{
		Title:   "Hijacked title for this question",
		Content: "Content long enough to pass validation either way.",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Edit() by non-author error = %v, want ErrForbidden", err)
	}

	edited, err := svc.Edit(ctx, author.ID, q.ID, EditInput{
		Title:   "A clarified question title",
		Content: "Content long enough to pass validation either way.",
	})
	if err != nil {
		t.Fatalf("Edit() by author error = %v", err)
	}
	if edited.Title != "A clarified question title" {
		t.Errorf("Title = %q after edit", edited.Title)
	}
}

func TestDelete_CleansUpTagCountsAndVotes(t *testing.T) {
	store := newTestStore(t)
	author := seedUser(t, store, "ana", "ana@example.com")
	voter := seedUser(t, store, "bob", "bob@example.com")
	svc := NewQuestionService(store, testLogger())
	ctx := context.Background()

	q, err := svc.Ask(ctx, author.ID, AskInput{
		Title:   "How do Go slices grow?",
		Content: "Long enough content for the validator to accept here.",
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	tagID := q.Tags[0].ID

	if err := store.CreateVote(ctx, &model.Vote{
		UserID:     voter.ID,
		TargetType: model.VoteTargetQuestion,
		TargetID:   q.ID,
		Kind:       model.VoteUp,
	}); err != nil {
		t.Fatalf("CreateVote() error = %v", err)
	}

	if err := svc.Delete(ctx, author.ID, q.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	tag, err := store.GetTagByID(ctx, tagID)
	if err != nil {
		t.Fatalf("GetTagByID() error = %v", err)
	}
	if tag.QuestionCount != 0 {
		t.Errorf("QuestionCount = %d, want 0 after delete", tag.QuestionCount)
	}
	if _, err := store.GetVote(ctx, voter.ID, model.VoteTargetQuestion, q.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("vote survived question delete: %v", err)
	}
	if _, err := store.GetQuestionByID(ctx, q.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("question still present: %v", err)
	}
}

func TestDelete_RemovesAnswerVotesAndReputation(t *testing.T) {
	store := newTestStore(t)
	asker := seedUser(t, store, "ana", "ana@example.com")
	answerer := seedUser(t, store, "bob", "bob@example.com")
	voter := seedUser(t, store, "eve", "eve@example.com")
	questions := NewQuestionService(store, testLogger())
	answers := NewAnswerService(store, testLogger())
	votes := NewVoteService(store, testLogger())
	ctx := context.Background()

	q, err := questions.Ask(ctx, asker.ID, AskInput{
		Title:   "How do Go slices grow?",
		Content: "Long enough content for the validator to accept here.",
		Tags:    []string{"go"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	answer, err := answers.Post(ctx, answerer.ID, q.ID, PostAnswerInput{
		Content: "A sufficiently long answer body for the validator.",
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	// Eve upvotes both posts, granting +10 to each author.
	for _, cast := range []CastInput{
		{TargetType: model.VoteTargetQuestion, TargetID: q.ID, Kind: model.VoteUp},
		{TargetType: model.VoteTargetAnswer, TargetID: answer.ID, Kind: model.VoteUp},
	} {
		if _, err := votes.Cast(ctx, voter.ID, cast); err != nil {
			t.Fatalf("Cast() error = %v", err)
		}
	}

	if err := questions.Delete(ctx, asker.ID, q.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// No vote row survives, the answer's included: the votes table has no
	// foreign key to answers, so the delete flow must remove them itself.
	if _, err := store.GetVote(ctx, voter.ID, model.VoteTargetAnswer, answer.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("vote on answer survived question delete: %v", err)
	}
	if _, err := store.GetVote(ctx, voter.ID, model.VoteTargetQuestion, q.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("vote on question survived question delete: %v", err)
	}

	// And the reputation those votes granted is walked back.
	gotAsker, err := store.GetUserByID(ctx, asker.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if gotAsker.Reputation != 0 {
		t.Errorf("asker Reputation = %d, want 0 after delete", gotAsker.Reputation)
	}
	gotAnswerer, err := store.GetUserByID(ctx, answerer.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if gotAnswerer.Reputation != 0 {
		t.Errorf("answerer Reputation = %d, want 0 after delete", gotAnswerer.Reputation)
	}
}

func TestDelete_OnlyAuthor(t *testing.T) {
	store := newTestStore(t)
	author := seedUser(t, store, "ana", "ana@example.com")
	intruder := seedUser(t, store, "bob", "bob@example.com")
	svc := NewQuestionService(store, testLogger())

	q := seedQuestion(t, store, author.ID)

	err := svc.Delete(context.Background(), intruder.ID, q.ID)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() by non-author error = %v, want ErrForbidden", err)
	}
}

func TestList_FiltersByAuthor(t *testing.T) {
	store := newTestStore(t)
	ana := seedUser(t, store, "ana", "ana@example.com")
	bob := seedUser(t, store, "bob", "bob@example.com")
	svc := NewQuestionService(store, testLogger())
	ctx := context.Background()

	mine := seedQuestion(t, store, ana.ID)
	seedQuestion(t, store, bob.ID)

	got, err := svc.List(ctx, ListFilter{AuthorID: ana.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("author filter returned %d questions, want only ana's", len(got))
	}
}
