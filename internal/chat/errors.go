package chat

import "errors"

var (
	// ErrAuthentication rejects a connection whose credential does not resolve to a user.
	ErrAuthentication = errors.New("authentication error")
	// ErrValidation rejects a malformed command.
	ErrValidation = errors.New("validation error")
	// ErrRoomNotFound means the id matches neither a stream nor an event.
	ErrRoomNotFound = errors.New("room not found")
	// ErrBlocked means the sender is in the stream's block list.
	ErrBlocked = errors.New("you are blocked from this stream")
	// ErrUnauthorized means an owner-only action was requested by someone else.
	ErrUnauthorized = errors.New("not allowed")
	// ErrRateLimited means the connection exceeded its message rate.
	ErrRateLimited = errors.New("too many messages, slow down")
	// ErrMessageNotFound means the message is missing from the room or already deleted.
	ErrMessageNotFound = errors.New("message not found")
)
