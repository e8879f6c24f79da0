package ws

import (
	"github.com/goccy/go-json"
)

// inbound is the envelope of every client frame.
type inbound struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data"`
}

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId" validate:"required"`
	Message string `json:"message"`
}

type blockUserPayload struct {
	RoomID        string `json:"roomId" validate:"required"`
	UserIDToBlock string `json:"userIdToBlock" validate:"required"`
}

type deleteMessagePayload struct {
	RoomID    string `json:"roomId" validate:"required"`
	MessageID int64  `json:"messageId" validate:"required,gt=0"`
}
