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

const tagColumns = `id, name, question_count, created_at, updated_at`

func scanTag(row interface{ Scan(...any) error }) (*model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name, &t.QuestionCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	now := time.Now().UTC()
	tag.ID = xid.New().String()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, question_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.QuestionCount, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Tag already exists")
		}
		return fmt.Errorf("sqlite: inserting tag %q: %w", tag.Name, err)
	}
	return nil
}

func (d *DB) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	t, err := scanTag(d.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return t, nil
}

func (d *DB) GetTagByName(ctx context.Context, name string) (*model.Tag, error) {
	t, err := scanTag(d.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", name)
		}
		return nil, fmt.Errorf("sqlite: getting tag by name %q: %w", name, err)
	}
	return t, nil
}

func (d *DB) ListTags(ctx context.Context, f repository.TagFilter) ([]model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags`
	var args []any

	if f.Search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}

	switch f.Sort {
	case repository.SortName:
		query += ` ORDER BY name ASC`
	case repository.SortRecent:
		query += ` ORDER BY created_at DESC`
	default: // SortPopular
		query += ` ORDER BY question_count DESC, name ASC`
	}

	query += ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0, f.Limit)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag rows: %w", err)
	}
	return tags, nil
}

func (d *DB) AdjustTagQuestionCount(ctx context.Context, id string, delta int) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE tags SET question_count = question_count + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting question count for tag %s: %w", id, err)
	}
	return nil
}

func (d *DB) LinkQuestionTag(ctx context.Context, questionID, tagID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO question_tags (question_id, tag_id) VALUES (?, ?)`,
		questionID, tagID)
	if err != nil {
		return fmt.Errorf("sqlite: linking question %s to tag %s: %w", questionID, tagID, err)
	}
	return nil
}

// UnlinkQuestionTags removes all tag links for a question and returns the
// previously linked tag IDs so the caller can decrement their counters in
// the same transaction.
func (d *DB) UnlinkQuestionTags(ctx context.Context, questionID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT tag_id FROM question_tags WHERE question_id = ?`, questionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading tag links for question %s: %w", questionID, err)
	}
	defer rows.Close()

	var tagIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag link: %w", err)
		}
		tagIDs = append(tagIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag links: %w", err)
	}

	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM question_tags WHERE question_id = ?`, questionID); err != nil {
		return nil, fmt.Errorf("sqlite: unlinking tags for question %s: %w", questionID, err)
	}
	return tagIDs, nil
}

func (d *DB) TagsForQuestion(ctx context.Context, questionID string) ([]model.Tag, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.question_count, t.created_at, t.updated_at
		 FROM tags t
		 JOIN question_tags qt ON qt.tag_id = t.id
		 WHERE qt.question_id = ?
		 ORDER BY t.name ASC`, questionID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting tags for question %s: %w", questionID, err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tag rows: %w", err)
	}
	return tags, nil
}
