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
)

func (d *DB) GetVote(ctx context.Context, userID, targetType, targetID string) (*model.Vote, error) {
	var v model.Vote
	err := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, target_type, target_id, kind, created_at
		 FROM votes WHERE user_id = ? AND target_type = ? AND target_id = ?`,
		userID, targetType, targetID,
	).Scan(&v.ID, &v.UserID, &v.TargetType, &v.TargetID, &v.Kind, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("vote", targetType+":"+targetID)
		}
		return nil, fmt.Errorf("sqlite: getting vote: %w", err)
	}
	return &v, nil
}

func (d *DB) CreateVote(ctx context.Context, v *model.Vote) error {
	v.ID = xid.New().String()
	v.CreatedAt = time.Now().UTC()

	_, err := d.db.ExecContext(ctx,
		`INSERT INTO votes (id, user_id, target_type, target_id, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.TargetType, v.TargetID, v.Kind, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("Vote already cast")
		}
		return fmt.Errorf("sqlite: inserting vote: %w", err)
	}
	return nil
}

func (d *DB) UpdateVoteKind(ctx context.Context, id, kind string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE votes SET kind = ? WHERE id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating vote %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("vote", id)
	}
	return nil
}

func (d *DB) DeleteVote(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM votes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting vote %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("vote", id)
	}
	return nil
}

// ListVotesForTarget returns every vote on a post, so a delete flow can
// walk back the reputation those votes granted before removing them.
func (d *DB) ListVotesForTarget(ctx context.Context, targetType, targetID string) ([]model.Vote, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, target_type, target_id, kind, created_at
		 FROM votes WHERE target_type = ? AND target_id = ?`,
		targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing votes for %s %s: %w", targetType, targetID, err)
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.ID, &v.UserID, &v.TargetType, &v.TargetID, &v.Kind, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning vote row: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating vote rows: %w", err)
	}
	return votes, nil
}

// DeleteVotesForTarget removes every vote on a post; used when the post
// itself is deleted.
func (d *DB) DeleteVotesForTarget(ctx context.Context, targetType, targetID string) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM votes WHERE target_type = ? AND target_id = ?`, targetType, targetID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting votes for %s %s: %w", targetType, targetID, err)
	}
	return nil
}
