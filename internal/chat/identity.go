package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

// IdentityResolver turns a handshake credential into a user identity.
type IdentityResolver struct {
	users repositories.UserRepository
}

// NewIdentityResolver constructs an IdentityResolver.
func NewIdentityResolver(users repositories.UserRepository) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve looks the user id up. Missing or unknown ids fail with ErrAuthentication.
func (r *IdentityResolver) Resolve(ctx context.Context, userID string) (models.Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Identity{}, fmt.Errorf("%w: user id not found", ErrAuthentication)
	}

	user, err := r.users.FindUserByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.Identity{}, fmt.Errorf("%w: user not found", ErrAuthentication)
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return user, nil
}
