package models

import (
	"database/sql"
	"time"
)

// Moderation classification tags stored on chat messages.
const (
	FlagSpam   = "spam"
	FlagToxic  = "toxic"
	FlagHate   = "hate"
	FlagSexual = "sexual"
	FlagOther  = "other"
)

// ChatMessage is a persisted chat line in a room.
type ChatMessage struct {
	ID             int64          `db:"id" json:"id"`
	RoomID         string         `db:"room_id" json:"room_id"`
	UserID         string         `db:"user_id" json:"user_id"`
	Username       string         `db:"username" json:"username"`
	Message        string         `db:"message" json:"message"`
	IsDeleted      bool           `db:"is_deleted" json:"is_deleted"`
	ModerationFlag sql.NullString `db:"moderation_flag" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// HistoryRow is a chat message joined with its author's current avatar.
type HistoryRow struct {
	ChatMessage
	Avatar string `db:"avatar"`
}

// Author carries the display fields shown next to a message.
type Author struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// MessageView is the client-facing shape of a chat message, used both for
// live fan-out and history listing.
type MessageView struct {
	ID             int64     `json:"id"`
	RoomID         string    `json:"roomId"`
	UserID         string    `json:"userId"`
	Message        string    `json:"message"`
	Author         Author    `json:"author"`
	CreatedAt      time.Time `json:"createdAt"`
	ModerationFlag string    `json:"moderationFlag,omitempty"`
}

// NewMessageView builds the view of msg using the author's avatar.
func NewMessageView(msg ChatMessage, avatar string) MessageView {
	return MessageView{
		ID:             msg.ID,
		RoomID:         msg.RoomID,
		UserID:         msg.UserID,
		Message:        msg.Message,
		Author:         Author{Username: msg.Username, Avatar: avatar},
		CreatedAt:      msg.CreatedAt,
		ModerationFlag: msg.ModerationFlag.String,
	}
}
