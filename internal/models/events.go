package models

// Server to client event names.
const (
	EventChatNew     = "chat-new"
	EventChatError   = "chat-error"
	EventUserBlocked = "user-blocked"
	EventRoomEnded   = "room-ended"
	EventChatDeleted = "chat-deleted"
)

// Client to server event names.
const (
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventSendMessage   = "send-message"
	EventBlockUser     = "block-user"
	EventEndRoom       = "end-room"
	EventDeleteMessage = "delete-message"
)

// Envelope is the frame exchanged over a websocket connection.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChatErrorPayload is delivered privately to the sender of a rejected command.
type ChatErrorPayload struct {
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message"`
}

// UserBlockedPayload notifies a room that a user may no longer post.
type UserBlockedPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// RoomEndedPayload precedes the eviction of every member of a room.
type RoomEndedPayload struct {
	RoomID string `json:"roomId"`
}

// ChatDeletedPayload tells clients to drop a message from their view.
type ChatDeletedPayload struct {
	RoomID string `json:"roomId"`
	ID     int64  `json:"id"`
}
