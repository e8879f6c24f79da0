package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository stores chat messages per room.
type MessageRepository interface {
	Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error)
	DeleteAllForRoom(ctx context.Context, roomID string) (int64, error)
	ListForRoom(ctx context.Context, roomID string) ([]models.HistoryRow, error)
	GetMessage(ctx context.Context, roomID string, messageID int64) (models.ChatMessage, error)
	SoftDelete(ctx context.Context, roomID string, messageID int64) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message; id and created_at are assigned by the database.
func (r *MessageRepo) Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	var saved models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages (room_id, user_id, username, message, moderation_flag)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, room_id, user_id, username, message, is_deleted, moderation_flag, created_at`,
		msg.RoomID, msg.UserID, msg.Username, msg.Message, msg.ModerationFlag).
		Scan(&saved.ID, &saved.RoomID, &saved.UserID, &saved.Username, &saved.Message, &saved.IsDeleted, &saved.ModerationFlag, &saved.CreatedAt)
	return saved, err
}

// DeleteAllForRoom hard deletes every message of the room.
func (r *MessageRepo) DeleteAllForRoom(ctx context.Context, roomID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE room_id=$1`, roomID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListForRoom returns the visible messages of a room in insertion order.
func (r *MessageRepo) ListForRoom(ctx context.Context, roomID string) ([]models.HistoryRow, error) {
	query := `SELECT m.id, m.room_id, m.user_id, m.username, m.message, m.is_deleted, m.moderation_flag, m.created_at,
            COALESCE(u.avatar, '') AS avatar
        FROM chat_messages m
        LEFT JOIN users u ON u.id = m.user_id
        WHERE m.room_id=$1
        AND m.is_deleted = FALSE
        ORDER BY m.id ASC`
	rows := []models.HistoryRow{}
	err := r.db.SelectContext(ctx, &rows, query, roomID)
	return rows, err
}

// GetMessage retrieves a single message of a room.
func (r *MessageRepo) GetMessage(ctx context.Context, roomID string, messageID int64) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.GetContext(ctx, &msg, `SELECT id, room_id, user_id, username, message, is_deleted, moderation_flag, created_at
        FROM chat_messages WHERE id=$1 AND room_id=$2`, messageID, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete hides a message from history.
func (r *MessageRepo) SoftDelete(ctx context.Context, roomID string, messageID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET is_deleted = TRUE WHERE id=$1 AND room_id=$2 AND is_deleted = FALSE`, messageID, roomID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
