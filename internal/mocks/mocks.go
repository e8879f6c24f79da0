package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) FindUserByID(ctx context.Context, userID string) (models.Identity, error) {
	args := m.Called(ctx, userID)
	var user models.Identity
	if val := args.Get(0); val != nil {
		user = val.(models.Identity)
	}
	return user, args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) ResolveRoom(ctx context.Context, roomID string) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, msg models.ChatMessage) (models.ChatMessage, error) {
	args := m.Called(ctx, msg)
	var saved models.ChatMessage
	switch val := args.Get(0).(type) {
	case func(context.Context, models.ChatMessage) models.ChatMessage:
		saved = val(ctx, msg)
	case models.ChatMessage:
		saved = val
	}
	return saved, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteAllForRoom(ctx context.Context, roomID string) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) ListForRoom(ctx context.Context, roomID string) ([]models.HistoryRow, error) {
	args := m.Called(ctx, roomID)
	var rows []models.HistoryRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.HistoryRow)
	}
	return rows, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, roomID string, messageID int64) (models.ChatMessage, error) {
	args := m.Called(ctx, roomID, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, roomID string, messageID int64) error {
	args := m.Called(ctx, roomID, messageID)
	return args.Error(0)
}

type ModerationRepositoryMock struct {
	mock.Mock
}

func (m *ModerationRepositoryMock) GetBlockedSet(ctx context.Context, streamID string) ([]string, error) {
	args := m.Called(ctx, streamID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ModerationRepositoryMock) IsBlocked(ctx context.Context, streamID string, userID string) (bool, error) {
	args := m.Called(ctx, streamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ModerationRepositoryMock) AddBlocked(ctx context.Context, streamID string, userID string) (bool, error) {
	args := m.Called(ctx, streamID, userID)
	return args.Bool(0), args.Error(1)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	m.Called(ctx, level, text, requestID, userID)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.RoomRepository = (*RoomRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ModerationRepository = (*ModerationRepositoryMock)(nil)
