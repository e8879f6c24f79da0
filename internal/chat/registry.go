package chat

import (
	"github.com/goccy/go-json"

	"stream-chat-service/internal/models"
)

// Member is a live connection that can be placed in rooms.
type Member interface {
	ID() string
	Identity() models.Identity
	// Send queues an encoded frame for delivery without blocking.
	Send(frame []byte) error
}

// Registry tracks which members are in which room and fans events out to them.
// The in-memory hub implements it for a single process; a bus-backed registry
// can replace it without touching the pipeline or the lifecycle controller.
type Registry interface {
	Join(m Member, roomID string) bool
	Leave(m Member, roomID string) bool
	LeaveAll(m Member) []string
	Broadcast(roomID string, event string, payload any) int
	EvictAll(roomID string) []Member
	Members(roomID string) []Member
	Rooms(m Member) []string
}

// EncodeEvent builds the wire frame for an event.
func EncodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(models.Envelope{Event: event, Data: payload})
}

// SendEvent delivers an event to a single member.
func SendEvent(m Member, event string, payload any) error {
	frame, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	return m.Send(frame)
}
