package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"stream-chat-service/internal/models"
	"stream-chat-service/internal/repositories"
)

// DefaultMaxMessageLength bounds message text in characters.
const DefaultMaxMessageLength = 300

// Pipeline validates, persists and fans out chat messages.
type Pipeline struct {
	messages   repositories.MessageRepository
	moderation *ModerationStore
	registry   Registry
	classifier *Classifier
	maxLength  int
}

// NewPipeline constructs a Pipeline. A non-positive maxLength uses DefaultMaxMessageLength.
func NewPipeline(messages repositories.MessageRepository, moderation *ModerationStore, registry Registry, classifier *Classifier, maxLength int) *Pipeline {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &Pipeline{
		messages:   messages,
		moderation: moderation,
		registry:   registry,
		classifier: classifier,
		maxLength:  maxLength,
	}
}

// ValidateText trims raw and checks it against the length bound.
func (p *Pipeline) ValidateText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > p.maxLength {
		return "", fmt.Errorf("%w: message is %d characters, limit is %d", ErrValidation, n, p.maxLength)
	}
	return text, nil
}

// Send stores text from author in the room and broadcasts chat-new to every
// member, sender included. Nothing is stored or broadcast on failure.
func (p *Pipeline) Send(ctx context.Context, author models.Identity, room models.Room, text string) (models.MessageView, error) {
	blocked, err := p.moderation.IsBlocked(ctx, room, author.ID)
	if err != nil {
		return models.MessageView{}, err
	}
	if blocked {
		return models.MessageView{}, ErrBlocked
	}

	msg := models.ChatMessage{
		RoomID:   room.ID,
		UserID:   author.ID,
		Username: author.Username,
		Message:  text,
	}
	if flag := p.classifier.Classify(text); flag != "" {
		msg.ModerationFlag = sql.NullString{String: flag, Valid: true}
	}

	saved, err := p.messages.Insert(ctx, msg)
	if err != nil {
		return models.MessageView{}, fmt.Errorf("store message: %w", err)
	}

	view := models.NewMessageView(saved, author.Avatar)
	p.registry.Broadcast(room.ID, models.EventChatNew, view)
	return view, nil
}

// Delete soft deletes a message. Only its author or the room owner may do so.
func (p *Pipeline) Delete(ctx context.Context, requester models.Identity, room models.Room, messageID int64) error {
	msg, err := p.messages.GetMessage(ctx, room.ID, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) || (err == nil && msg.IsDeleted) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if msg.UserID != requester.ID && !room.IsOwnedBy(requester.ID) {
		return ErrUnauthorized
	}

	if err := p.messages.SoftDelete(ctx, room.ID, messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}

	p.registry.Broadcast(room.ID, models.EventChatDeleted, models.ChatDeletedPayload{RoomID: room.ID, ID: messageID})
	return nil
}

// History returns the visible messages of a room, oldest first. Unknown rooms
// yield an empty slice.
func (p *Pipeline) History(ctx context.Context, roomID string) ([]models.MessageView, error) {
	rows, err := p.messages.ListForRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return lo.Map(rows, func(row models.HistoryRow, _ int) models.MessageView {
		return models.NewMessageView(row.ChatMessage, row.Avatar)
	}), nil
}
