package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository resolves room ids against stream and event records.
type RoomRepository interface {
	ResolveRoom(ctx context.Context, roomID string) (models.Room, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// ResolveRoom looks the id up in streams first, then in events.
func (r *RoomRepo) ResolveRoom(ctx context.Context, roomID string) (models.Room, error) {
	query := `SELECT id, kind, owner_id FROM (
            SELECT id, 'stream' AS kind, streamer_id AS owner_id, 0 AS rank FROM streams WHERE id=$1
            UNION ALL
            SELECT id, 'event' AS kind, streamer_id AS owner_id, 1 AS rank FROM events WHERE id=$1
        ) rooms
        ORDER BY rank
        LIMIT 1`
	var room models.Room
	err := r.db.GetContext(ctx, &room, query, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}
