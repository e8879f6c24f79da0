package ws

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/models"
	"stream-chat-service/internal/observability"
)

const genericErrorMessage = "something went wrong, please try again"

// Dispatcher routes client events to the chat service and turns failures
// into chat-error frames for the triggering connection only.
type Dispatcher struct {
	service            *chat.Service
	validate           *validator.Validate
	tracer             trace.Tracer
	rejectUnauthorized bool
	log                logrus.FieldLogger
}

// NewDispatcher constructs a Dispatcher. With rejectUnauthorized set, owner-only
// actions attempted by other users get a chat-error instead of being ignored.
func NewDispatcher(service *chat.Service, rejectUnauthorized bool, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		service:            service,
		validate:           validator.New(),
		tracer:             otel.Tracer("stream-chat-service/ws"),
		rejectUnauthorized: rejectUnauthorized,
		log:                log,
	}
}

// Dispatch handles one inbound frame.
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
		d.reply(c, "", errInvalidFrame)
		return
	}

	ctx, span := d.tracer.Start(ctx, "ws."+in.Event, trace.WithAttributes(
		attribute.String("ws.conn_id", c.ID()),
		attribute.String("enduser.id", c.Identity().ID),
	))
	defer span.End()

	start := time.Now()
	roomID, err := d.route(ctx, c, in)
	outcome := outcomeOf(err)
	observability.ObserveInboundEvent(in.Event, outcome, time.Since(start))
	if roomID != "" {
		span.SetAttributes(attribute.String("chat.room_id", roomID))
	}
	if err != nil {
		span.RecordError(err)
		if outcome == "error" {
			span.SetStatus(codes.Error, err.Error())
		}
		d.reply(c, roomID, err)
	}
}

var (
	errInvalidFrame = errors.New("invalid frame")
	errUnknownEvent = errors.New("unknown event")
)

func (d *Dispatcher) route(ctx context.Context, c *Client, in inbound) (string, error) {
	switch in.Event {
	case models.EventJoinRoom:
		var p roomPayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		_, err := d.service.Join(c, p.RoomID)
		return p.RoomID, err

	case models.EventLeaveRoom:
		var p roomPayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		d.service.Leave(c, p.RoomID)
		return p.RoomID, nil

	case models.EventSendMessage:
		var p sendMessagePayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		if !c.Allow() {
			return p.RoomID, chat.ErrRateLimited
		}
		_, err := d.service.SendMessage(ctx, c, p.RoomID, p.Message)
		return p.RoomID, err

	case models.EventBlockUser:
		var p blockUserPayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		_, err := d.service.BlockUser(ctx, c, p.RoomID, p.UserIDToBlock)
		return p.RoomID, err

	case models.EventEndRoom:
		var p roomPayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		evicted, err := d.service.EndRoom(ctx, c, p.RoomID)
		if err == nil {
			observability.IncRoomEnded()
			d.log.WithFields(logrus.Fields{"room_id": p.RoomID, "evicted": len(evicted)}).Debug("members evicted")
		}
		return p.RoomID, err

	case models.EventDeleteMessage:
		var p deleteMessagePayload
		if err := d.decode(in.Data, &p); err != nil {
			return "", err
		}
		return p.RoomID, d.service.DeleteMessage(ctx, c, p.RoomID, p.MessageID)

	default:
		return "", errUnknownEvent
	}
}

func (d *Dispatcher) decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errInvalidFrame
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errInvalidFrame
	}
	if err := d.validate.Struct(dst); err != nil {
		return errInvalidFrame
	}
	return nil
}

// reply sends the chat-error matching err to c, or nothing when the error is
// meant to stay silent.
func (d *Dispatcher) reply(c *Client, roomID string, err error) {
	message, ok := d.errorMessage(err)
	if !ok {
		return
	}
	if sendErr := chat.SendEvent(c, models.EventChatError, models.ChatErrorPayload{RoomID: roomID, Message: message}); sendErr != nil {
		d.log.WithError(sendErr).WithField("conn_id", c.ID()).Debug("chat-error not delivered")
	}
}

func (d *Dispatcher) errorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, chat.ErrBlocked):
		return chat.ErrBlocked.Error(), true
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrRateLimited),
		errors.Is(err, chat.ErrMessageNotFound):
		return err.Error(), true
	case errors.Is(err, errInvalidFrame), errors.Is(err, errUnknownEvent):
		return err.Error(), true
	case errors.Is(err, chat.ErrUnauthorized):
		return err.Error(), d.rejectUnauthorized
	default:
		d.log.WithError(err).Error("event handling failed")
		return genericErrorMessage, true
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, chat.ErrBlocked):
		return "blocked"
	case errors.Is(err, chat.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, chat.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, errInvalidFrame),
		errors.Is(err, errUnknownEvent):
		return "rejected"
	default:
		return "error"
	}
}
