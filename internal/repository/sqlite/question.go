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

const questionColumns = `id, author_id, title, content, views, upvotes, downvotes, answer_count, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.ID,
		&q.AuthorID,
		&q.Title,
		&q.Content,
		&q.Views,
		&q.Upvotes,
		&q.Downvotes,
		&q.AnswerCount,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (d *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	now := time.Now().UTC()
	q.ID = xid.New().String()
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO questions (id, author_id, title, content, views, upvotes, downvotes, answer_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, 0, 0, ?, ?)`,
		q.ID, q.AuthorID, q.Title, q.Content, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting question: %w", err)
	}
	return nil
}

func (d *DB) GetQuestionByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(d.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return q, nil
}

// ListQuestions applies the filter's tag/author/search constraints and sort
// order. The WHERE clause is assembled from fixed fragments; user input
// only ever travels through placeholders.
func (d *DB) ListQuestions(ctx context.Context, f repository.QuestionFilter) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []any

	where := ""
	appendCond := func(cond string, condArgs ...any) {
		if where == "" {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
		args = append(args, condArgs...)
	}

	if f.TagID != "" {
		appendCond(`id IN (SELECT question_id FROM question_tags WHERE tag_id = ?)`, f.TagID)
	}
	if f.AuthorID != "" {
		appendCond(`author_id = ?`, f.AuthorID)
	}
	if f.Search != "" {
		appendCond(`title LIKE ? ESCAPE '\'`, "%"+escapeLike(f.Search)+"%")
	}
	if f.Sort == repository.SortUnanswered {
		appendCond(`answer_count = 0`)
	}

	order := ` ORDER BY created_at DESC`
	switch f.Sort {
	case repository.SortFrequent:
		order = ` ORDER BY views DESC, created_at DESC`
	case repository.SortTopVoted:
		order = ` ORDER BY upvotes DESC, created_at DESC`
	}

	query += where + order + ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	questions := make([]model.Question, 0, f.Limit)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating question rows: %w", err)
	}
	return questions, nil
}

func (d *DB) UpdateQuestion(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now().UTC()
	res, err := d.db.ExecContext(ctx,
		`UPDATE questions SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		q.Title, q.Content, q.UpdatedAt, q.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating question %s: %w", q.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("question", q.ID)
	}
	return nil
}

// DeleteQuestion removes the row; answers, tag links, and collections go
// with it through ON DELETE CASCADE. Votes and tag counters are handled by
// the service inside the same transaction.
func (d *DB) DeleteQuestion(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("question", id)
	}
	return nil
}

func (d *DB) IncrementViews(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE questions SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing views for question %s: %w", id, err)
	}
	return nil
}

func (d *DB) AdjustQuestionVotes(ctx context.Context, id string, upDelta, downDelta int) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE questions SET upvotes = upvotes + ?, downvotes = downvotes + ? WHERE id = ?`,
		upDelta, downDelta, id)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting votes for question %s: %w", id, err)
	}
	return nil
}

func (d *DB) AdjustAnswerCount(ctx context.Context, id string, delta int) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE questions SET answer_count = answer_count + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting answer count for question %s: %w", id, err)
	}
	return nil
}

// escapeLike escapes the LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	r := ""
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r += `\`
		}
		r += string(c)
	}
	return r
}
