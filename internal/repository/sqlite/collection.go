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

func (d *DB) GetCollection(ctx context.Context, userID, questionID string) (*model.Collection, error) {
	var c model.Collection
	err := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, question_id, created_at
		 FROM collections WHERE user_id = ? AND question_id = ?`,
		userID, questionID,
	).Scan(&c.ID, &c.UserID, &c.QuestionID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("collection", questionID)
		}
		return nil, fmt.Errorf("sqlite: getting collection: %w", err)
	}
	return &c, nil
}

func (d *DB) CreateCollection(ctx context.Context, c *model.Collection) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO collections (id, user_id, question_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.QuestionID, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Question already saved")
		}
		return fmt.Errorf("sqlite: inserting collection: %w", err)
	}
	return nil
}

func (d *DB) DeleteCollection(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting collection %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("collection", id)
	}
	return nil
}

// ListCollections returns a user's bookmarks, newest first, with the saved
// question embedded.
func (d *DB) ListCollections(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Collection, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.question_id, c.created_at,
		        q.id, q.author_id, q.title, q.content, q.views, q.upvotes, q.downvotes, q.answer_count, q.created_at, q.updated_at
		 FROM collections c
		 JOIN questions q ON q.id = c.question_id
		 WHERE c.user_id = ?
		 ORDER BY c.created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collections for user %s: %w", userID, err)
	}
	defer rows.Close()

	collections := make([]model.Collection, 0, opts.Limit)
	for rows.Next() {
		var c model.Collection
		var q model.Question
		err := rows.Scan(
			&c.ID, &c.UserID, &c.QuestionID, &c.CreatedAt,
			&q.ID, &q.AuthorID, &q.Title, &q.Content, &q.Views, &q.Upvotes, &q.Downvotes, &q.AnswerCount, &q.CreatedAt, &q.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning collection row: %w", err)
		}
		c.Question = &q
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating collection rows: %w", err)
	}
	return collections, nil
}
