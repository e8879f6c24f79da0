package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ModerationRepository persists per-stream block lists.
type ModerationRepository interface {
	GetBlockedSet(ctx context.Context, streamID string) ([]string, error)
	IsBlocked(ctx context.Context, streamID string, userID string) (bool, error)
	AddBlocked(ctx context.Context, streamID string, userID string) (bool, error)
}

// ModerationRepo is a sqlx implementation of ModerationRepository.
type ModerationRepo struct {
	db *sqlx.DB
}

// NewModerationRepo constructs a ModerationRepo.
func NewModerationRepo(db *sqlx.DB) *ModerationRepo {
	return &ModerationRepo{db: db}
}

// GetBlockedSet lists the users blocked in a stream, oldest block first.
func (r *ModerationRepo) GetBlockedSet(ctx context.Context, streamID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM stream_blocked_users WHERE stream_id=$1 ORDER BY blocked_at ASC`, streamID)
	return ids, err
}

// IsBlocked checks whether the user is in the stream's block list.
func (r *ModerationRepo) IsBlocked(ctx context.Context, streamID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM stream_blocked_users WHERE stream_id=$1 AND user_id=$2)`, streamID, userID)
	return exists, err
}

// AddBlocked inserts the pair and reports whether it was new.
func (r *ModerationRepo) AddBlocked(ctx context.Context, streamID string, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO stream_blocked_users (stream_id, user_id) VALUES ($1, $2)
        ON CONFLICT (stream_id, user_id) DO NOTHING`, streamID, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
