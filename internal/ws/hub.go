package ws

import (
	"sync"

	"github.com/sirupsen/logrus"

	"stream-chat-service/internal/chat"
)

// Hub maintains room membership for the connections of this process.
type Hub struct {
	rooms   map[string]map[chat.Member]struct{}
	members map[chat.Member]map[string]struct{}
	mu      sync.RWMutex
	log     logrus.FieldLogger
}

// NewHub creates an empty hub.
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[chat.Member]struct{}),
		members: make(map[chat.Member]map[string]struct{}),
		log:     log,
	}
}

// Join adds m to the room. It reports false when m was already a member.
func (h *Hub) Join(m chat.Member, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[chat.Member]struct{})
	}
	if _, ok := h.rooms[roomID][m]; ok {
		return false
	}
	h.rooms[roomID][m] = struct{}{}
	if _, ok := h.members[m]; !ok {
		h.members[m] = make(map[string]struct{})
	}
	h.members[m][roomID] = struct{}{}
	return true
}

// Leave removes m from the room. It reports false when m was not a member.
func (h *Hub) Leave(m chat.Member, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(m, roomID)
}

// LeaveAll removes m from every room and returns the rooms it left.
func (h *Hub) LeaveAll(m chat.Member) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	joined := h.members[m]
	left := make([]string, 0, len(joined))
	for roomID := range joined {
		h.removeLocked(m, roomID)
		left = append(left, roomID)
	}
	delete(h.members, m)
	return left
}

func (h *Hub) removeLocked(m chat.Member, roomID string) bool {
	conns, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := conns[m]; !ok {
		return false
	}
	delete(conns, m)
	if len(conns) == 0 {
		delete(h.rooms, roomID)
	}
	if joined, ok := h.members[m]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(h.members, m)
		}
	}
	return true
}

// Broadcast encodes the event once and queues it to every member of the room.
// It returns the number of members the frame was queued for.
func (h *Hub) Broadcast(roomID string, event string, payload any) int {
	frame, err := chat.EncodeEvent(event, payload)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "event": event}).Error("encode broadcast")
		return 0
	}

	delivered := 0
	for _, m := range h.Members(roomID) {
		if err := m.Send(frame); err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "event": event, "conn_id": m.ID()}).Warn("broadcast send failed")
			continue
		}
		delivered++
	}
	return delivered
}

// EvictAll empties the room and returns the members it held.
func (h *Hub) EvictAll(roomID string) []chat.Member {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.rooms[roomID]
	evicted := make([]chat.Member, 0, len(conns))
	for m := range conns {
		evicted = append(evicted, m)
		if joined, ok := h.members[m]; ok {
			delete(joined, roomID)
			if len(joined) == 0 {
				delete(h.members, m)
			}
		}
	}
	delete(h.rooms, roomID)
	return evicted
}

// Members returns a snapshot of the room's members.
func (h *Hub) Members(roomID string) []chat.Member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.rooms[roomID]
	out := make([]chat.Member, 0, len(conns))
	for m := range conns {
		out = append(out, m)
	}
	return out
}

// Rooms returns the rooms m currently belongs to.
func (h *Hub) Rooms(m chat.Member) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	joined := h.members[m]
	out := make([]string, 0, len(joined))
	for roomID := range joined {
		out = append(out, roomID)
	}
	return out
}

// RoomCount reports how many rooms have at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

var _ chat.Registry = (*Hub)(nil)
