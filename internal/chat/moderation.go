package chat

import (
	"context"
	"fmt"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

// ModerationStore guards the per-stream block lists.
type ModerationStore struct {
	repo     repositories.ModerationRepository
	registry Registry
}

// NewModerationStore constructs a ModerationStore.
func NewModerationStore(repo repositories.ModerationRepository, registry Registry) *ModerationStore {
	return &ModerationStore{repo: repo, registry: registry}
}

// IsBlocked reports whether userID may not post in the room. Event rooms have
// no block list.
func (s *ModerationStore) IsBlocked(ctx context.Context, room models.Room, userID string) (bool, error) {
	if !room.IsStream() {
		return false, nil
	}
	blocked, err := s.repo.IsBlocked(ctx, room.ID, userID)
	if err != nil {
		return false, fmt.Errorf("check block list: %w", err)
	}
	return blocked, nil
}

// Block adds userID to the room's block list on behalf of requesterID.
// It returns true only when the list changed, in which case the room has
// been told through a user-blocked event. Blocked users keep their membership.
func (s *ModerationStore) Block(ctx context.Context, room models.Room, requesterID, userID string) (bool, error) {
	if !room.IsStream() || !room.IsOwnedBy(requesterID) {
		return false, ErrUnauthorized
	}
	if userID == "" {
		return false, fmt.Errorf("%w: user to block is required", ErrValidation)
	}
	if userID == requesterID {
		return false, fmt.Errorf("%w: cannot block yourself", ErrValidation)
	}

	added, err := s.repo.AddBlocked(ctx, room.ID, userID)
	if err != nil {
		return false, fmt.Errorf("persist block: %w", err)
	}
	if !added {
		return false, nil
	}

	s.registry.Broadcast(room.ID, models.EventUserBlocked, models.UserBlockedPayload{RoomID: room.ID, UserID: userID})
	return true, nil
}

// BlockedUsers lists the users blocked in a stream room.
func (s *ModerationStore) BlockedUsers(ctx context.Context, room models.Room) ([]string, error) {
	if !room.IsStream() {
		return []string{}, nil
	}
	return s.repo.GetBlockedSet(ctx, room.ID)
}
