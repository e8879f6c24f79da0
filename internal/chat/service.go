package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

// Auditor records owner actions.
type Auditor interface {
	Emit(ctx context.Context, level, text, requestID string, userID *string)
}

// Service coordinates the chat core for connected members: identity,
// membership, messages, moderation and room lifecycle. Each method resolves
// the room at most once and either applies fully or fails without effect.
type Service struct {
	identity   *IdentityResolver
	rooms      repositories.RoomRepository
	registry   Registry
	moderation *ModerationStore
	pipeline   *Pipeline
	lifecycle  *Lifecycle
	audit      Auditor
	log        logrus.FieldLogger
}

// Option customises a Service.
type Option func(*options)

type options struct {
	maxMessageLength int
	classifier       *Classifier
	audit            Auditor
}

// WithMaxMessageLength overrides the message length bound.
func WithMaxMessageLength(n int) Option {
	return func(o *options) { o.maxMessageLength = n }
}

// WithClassifier tags stored messages with moderation flags.
func WithClassifier(c *Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithAuditor records block, end and delete actions.
func WithAuditor(a Auditor) Option {
	return func(o *options) { o.audit = a }
}

// NewService wires the chat components around a registry.
func NewService(
	users repositories.UserRepository,
	rooms repositories.RoomRepository,
	messages repositories.MessageRepository,
	moderation repositories.ModerationRepository,
	registry Registry,
	log logrus.FieldLogger,
	opts ...Option,
) *Service {
	o := options{maxMessageLength: DefaultMaxMessageLength}
	for _, opt := range opts {
		opt(&o)
	}

	store := NewModerationStore(moderation, registry)
	return &Service{
		identity:   NewIdentityResolver(users),
		rooms:      rooms,
		registry:   registry,
		moderation: store,
		pipeline:   NewPipeline(messages, store, registry, o.classifier, o.maxMessageLength),
		lifecycle:  NewLifecycle(messages, registry),
		audit:      o.audit,
		log:        log,
	}
}

// Authenticate resolves the handshake credential of a new connection.
func (s *Service) Authenticate(ctx context.Context, credential string) (models.Identity, error) {
	return s.identity.Resolve(ctx, credential)
}

// Join adds m to the room. Access control for ticketed events happens before
// a client is handed the room id, so none is applied here.
func (s *Service) Join(m Member, roomID string) (bool, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return false, fmt.Errorf("%w: room id is required", ErrValidation)
	}
	joined := s.registry.Join(m, roomID)
	if joined {
		s.log.WithFields(logrus.Fields{"room_id": roomID, "user_id": m.Identity().ID, "conn_id": m.ID()}).Debug("member joined room")
	}
	return joined, nil
}

// Leave removes m from a single room.
func (s *Service) Leave(m Member, roomID string) bool {
	return s.registry.Leave(m, strings.TrimSpace(roomID))
}

// Disconnect removes m from every room it joined.
func (s *Service) Disconnect(m Member) []string {
	rooms := s.registry.LeaveAll(m)
	s.log.WithFields(logrus.Fields{"user_id": m.Identity().ID, "conn_id": m.ID(), "rooms": len(rooms)}).Debug("member disconnected")
	return rooms
}

// SendMessage validates, stores and broadcasts a chat message from m.
func (s *Service) SendMessage(ctx context.Context, m Member, roomID, raw string) (models.MessageView, error) {
	text, err := s.pipeline.ValidateText(raw)
	if err != nil {
		return models.MessageView{}, err
	}
	room, err := s.resolveRoom(ctx, roomID)
	if err != nil {
		return models.MessageView{}, err
	}
	return s.pipeline.Send(ctx, m.Identity(), room, text)
}

// BlockUser lets the stream owner stop userID from posting. A repeated block
// is a no-op and reports false.
func (s *Service) BlockUser(ctx context.Context, m Member, roomID, userID string) (bool, error) {
	room, err := s.resolveRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	requester := m.Identity()
	added, err := s.moderation.Block(ctx, room, requester.ID, strings.TrimSpace(userID))
	if err != nil || !added {
		return added, err
	}
	s.emitAudit(ctx, m, fmt.Sprintf("user %s blocked in stream %s", userID, room.ID))
	return true, nil
}

// BlockedUsers lists a stream's block list for its owner.
func (s *Service) BlockedUsers(ctx context.Context, requesterID, roomID string) ([]string, error) {
	room, err := s.resolveRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsStream() || !room.IsOwnedBy(requesterID) {
		return nil, ErrUnauthorized
	}
	return s.moderation.BlockedUsers(ctx, room)
}

// EndRoom terminates a stream room on behalf of its owner and returns the
// evicted members.
func (s *Service) EndRoom(ctx context.Context, m Member, roomID string) ([]Member, error) {
	room, err := s.resolveRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	evicted, err := s.lifecycle.EndStream(ctx, m.Identity().ID, room)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"room_id": room.ID, "user_id": m.Identity().ID, "evicted": len(evicted)}).Info("room ended")
	s.emitAudit(ctx, m, fmt.Sprintf("stream %s ended, %d members evicted", room.ID, len(evicted)))
	return evicted, nil
}

// DeleteMessage soft deletes a message for its author or the room owner.
func (s *Service) DeleteMessage(ctx context.Context, m Member, roomID string, messageID int64) error {
	if messageID <= 0 {
		return fmt.Errorf("%w: message id is required", ErrValidation)
	}
	room, err := s.resolveRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.pipeline.Delete(ctx, m.Identity(), room, messageID); err != nil {
		return err
	}
	s.emitAudit(ctx, m, fmt.Sprintf("message %d deleted in room %s", messageID, room.ID))
	return nil
}

// ListHistory returns the visible messages of a room, oldest first.
func (s *Service) ListHistory(ctx context.Context, roomID string) ([]models.MessageView, error) {
	return s.pipeline.History(ctx, strings.TrimSpace(roomID))
}

func (s *Service) resolveRoom(ctx context.Context, roomID string) (models.Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return models.Room{}, fmt.Errorf("%w: room id is required", ErrValidation)
	}
	room, err := s.rooms.ResolveRoom(ctx, roomID)
	if errors.Is(err, repositories.ErrRoomNotFound) {
		return models.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("resolve room: %w", err)
	}
	return room, nil
}

func (s *Service) emitAudit(ctx context.Context, m Member, text string) {
	if s.audit == nil {
		return
	}
	userID := m.Identity().ID
	s.audit.Emit(ctx, "INFO", text, m.ID(), &userID)
}
