package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/models"
)

// RoomService is the part of the chat service the HTTP layer reads from.
type RoomService interface {
	ListHistory(ctx context.Context, roomID string) ([]models.MessageView, error)
	BlockedUsers(ctx context.Context, requesterID, roomID string) ([]string, error)
}

// RoomHandler serves read-only room endpoints.
type RoomHandler struct {
	rooms RoomService
	log   logrus.FieldLogger
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms RoomService, log logrus.FieldLogger) *RoomHandler {
	return &RoomHandler{rooms: rooms, log: log}
}

// GetMessages returns the room's visible history, oldest first.
func (h *RoomHandler) GetMessages(c *gin.Context) {
	messages, err := h.rooms.ListHistory(c.Request.Context(), c.Param("room_id"))
	if err != nil {
		h.log.WithError(err).WithField("room_id", c.Param("room_id")).Error("list history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetBlockedUsers returns a stream's block list to its owner.
func (h *RoomHandler) GetBlockedUsers(c *gin.Context) {
	userID := c.GetString("userID")
	blocked, err := h.rooms.BlockedUsers(c.Request.Context(), userID, c.Param("room_id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"blocked_user_ids": blocked})
	case errors.Is(err, chat.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, chat.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the stream owner can view blocked users"})
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
	default:
		h.log.WithError(err).WithField("room_id", c.Param("room_id")).Error("list blocked users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load blocked users"})
	}
}
