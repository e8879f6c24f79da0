package models

// RoomKind tells which record backs a room.
type RoomKind string

const (
	RoomKindStream RoomKind = "stream"
	RoomKindEvent  RoomKind = "event"
)

// Room is a resolved chat room. It is computed from the stream or event
// record sharing its id and is never stored on its own.
type Room struct {
	ID      string   `db:"id" json:"id"`
	Kind    RoomKind `db:"kind" json:"kind"`
	OwnerID string   `db:"owner_id" json:"owner_id"`
}

// IsStream reports whether the room belongs to a live stream.
func (r Room) IsStream() bool {
	return r.Kind == RoomKindStream
}

// IsOwnedBy reports whether userID created the stream or event behind the room.
func (r Room) IsOwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}
