package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-chat-service/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestFindUserByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "avatar"}).AddRow("u1", "alice", "a.png"))

	user, err := repo.FindUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: "u1", Username: "alice", Avatar: "a.png"}, user)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUserByID(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResolveRoomStream(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM streams WHERE id=\$1`).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "owner_id"}).AddRow("s1", "stream", "owner"))

	room, err := repo.ResolveRoom(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.RoomKindStream, room.Kind)
	assert.Equal(t, "owner", room.OwnerID)
	assert.True(t, room.IsStream())
}

func TestResolveRoomNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM events WHERE id=\$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.ResolveRoom(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestInsertMessage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO chat_messages`).
		WithArgs("r1", "u1", "bob", "hello", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "username", "message", "is_deleted", "moderation_flag", "created_at"}).
			AddRow(int64(7), "r1", "u1", "bob", "hello", false, nil, now))

	saved, err := repo.Insert(context.Background(), models.ChatMessage{RoomID: "r1", UserID: "u1", Username: "bob", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.ID)
	assert.False(t, saved.ModerationFlag.Valid)
	assert.Equal(t, now, saved.CreatedAt)
}

func TestDeleteAllForRoom(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectExec(`DELETE FROM chat_messages WHERE room_id=\$1`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.DeleteAllForRoom(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestListForRoom(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	now := time.Now()

	mock.ExpectQuery(`FROM chat_messages m`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "username", "message", "is_deleted", "moderation_flag", "created_at", "avatar"}).
			AddRow(int64(1), "r1", "u1", "bob", "first", false, nil, now, "b.png").
			AddRow(int64(2), "r1", "u2", "amy", "second", false, "spam", now, "a.png"))

	rows, err := repo.ListForRoom(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Message)
	assert.Equal(t, "b.png", rows[0].Avatar)
	assert.False(t, rows[0].ModerationFlag.Valid)
	assert.Equal(t, "spam", rows[1].ModerationFlag.String)
	assert.Equal(t, "a.png", rows[1].Avatar)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForRoomEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(`FROM chat_messages m`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "username", "message", "is_deleted", "moderation_flag", "created_at", "avatar"}))

	rows, err := repo.ListForRoom(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSoftDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectExec(`UPDATE chat_messages SET is_deleted = TRUE`).WithArgs(int64(9), "r1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), "r1", 9)
	require.ErrorIs(t, err, ErrMessageNotFound)
}

func TestAddBlockedReportsInsertion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewModerationRepo(db)

	mock.ExpectExec(`INSERT INTO stream_blocked_users`).WithArgs("s1", "u2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stream_blocked_users`).WithArgs("s1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := repo.AddBlocked(context.Background(), "s1", "u2")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddBlocked(context.Background(), "s1", "u2")
	require.NoError(t, err)
	assert.False(t, added)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsBlocked(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewModerationRepo(db)

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("s1", "u2").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	blocked, err := repo.IsBlocked(context.Background(), "s1", "u2")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestGetBlockedSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewModerationRepo(db)

	mock.ExpectQuery(`FROM stream_blocked_users WHERE stream_id=\$1`).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u2").AddRow("u3"))

	ids, err := repo.GetBlockedSet(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, ids)
}
