package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stream-chat-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the user directory.
type UserRepository interface {
	FindUserByID(ctx context.Context, userID string) (models.Identity, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindUserByID returns the display identity of a user.
func (r *UserRepo) FindUserByID(ctx context.Context, userID string) (models.Identity, error) {
	var user models.Identity
	err := r.db.GetContext(ctx, &user, `SELECT id, COALESCE(username, '') AS username, COALESCE(avatar, '') AS avatar FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, ErrUserNotFound
	}
	return user, err
}
