package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/gregsypek/devflow/internal/apperror"
	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/repository"
)

const answerColumns = `id, question_id, author_id, content, upvotes, downvotes, created_at, updated_at`

func scanAnswer(row interface{ Scan(...any) error }) (*model.Answer, error) {
	var a model.Answer
	err := row.Scan(
		&a.ID,
		&a.QuestionID,
		&a.AuthorID,
		&a.Content,
		&a.Upvotes,
		&a.Downvotes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DB) CreateAnswer(ctx context.Context, a *model.Answer) error {
	now := time.Now().UTC()
	a.ID = xid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO answers (id, question_id, author_id, content, upvotes, downvotes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		a.ID, a.QuestionID, a.AuthorID, a.Content, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting answer: %w", err)
	}
	return nil
}

func (d *DB) GetAnswerByID(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswer(d.db.QueryRowContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("answer", id)
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return a, nil
}

func (d *DB) ListAnswersByQuestion(ctx context.Context, questionID, sort string, opts repository.ListOptions) ([]model.Answer, error) {
	order := ` ORDER BY created_at DESC`
	if sort == repository.SortTopVoted {
		order = ` ORDER BY upvotes DESC, created_at DESC`
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = ?`+order+` LIMIT ? OFFSET ?`,
		questionID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing answers for question %s: %w", questionID, err)
	}
	defer rows.Close()

	answers := make([]model.Answer, 0, opts.Limit)
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer row: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answer rows: %w", err)
	}
	return answers, nil
}

// AnswersForQuestion returns all of a question's answers without
// pagination; the question delete flow walks them for cleanup.
func (d *DB) AnswersForQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE question_id = ?`, questionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading answers for question %s: %w", questionID, err)
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning answer row: %w", err)
		}
		answers = append(answers, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating answer rows: %w", err)
	}
	return answers, nil
}

func (d *DB) DeleteAnswer(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("answer", id)
	}
	return nil
}

func (d *DB) AdjustAnswerVotes(ctx context.Context, id string, upDelta, downDelta int) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE answers SET upvotes = upvotes + ?, downvotes = downvotes + ? WHERE id = ?`,
		upDelta, downDelta, id)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting votes for answer %s: %w", id, err)
	}
	return nil
}
