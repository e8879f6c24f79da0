package chat

import (
	"context"
	"fmt"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

// Lifecycle ends stream rooms.
type Lifecycle struct {
	messages repositories.MessageRepository
	registry Registry
}

// NewLifecycle constructs a Lifecycle.
func NewLifecycle(messages repositories.MessageRepository, registry Registry) *Lifecycle {
	return &Lifecycle{messages: messages, registry: registry}
}

// EndStream wipes the room's history, tells every member the room ended and
// then evicts them, in that order. Frames are queued per member in FIFO order,
// so room-ended reaches each client before its membership is gone.
func (l *Lifecycle) EndStream(ctx context.Context, requesterID string, room models.Room) ([]Member, error) {
	if !room.IsStream() || !room.IsOwnedBy(requesterID) {
		return nil, ErrUnauthorized
	}

	if _, err := l.messages.DeleteAllForRoom(ctx, room.ID); err != nil {
		return nil, fmt.Errorf("delete room history: %w", err)
	}

	l.registry.Broadcast(room.ID, models.EventRoomEnded, models.RoomEndedPayload{RoomID: room.ID})
	return l.registry.EvictAll(room.ID), nil
}
