package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"stream-chat-service/internal/chat"
	"stream-chat-service/internal/observability"
)

// CredentialSource extracts the handshake credential from a request.
type CredentialSource interface {
	Credential(r *http.Request) (string, error)
}

// HandlerConfig tunes per-connection resources.
type HandlerConfig struct {
	SendBuffer   int
	MessageRate  float64
	MessageBurst int
}

// Handler upgrades authenticated requests to chat connections.
type Handler struct {
	service     *chat.Service
	dispatcher  *Dispatcher
	credentials CredentialSource
	cfg         HandlerConfig
	upgrader    websocket.Upgrader
	log         logrus.FieldLogger

	mu      sync.Mutex
	clients map[*Client]struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewHandler constructs a Handler.
func NewHandler(service *chat.Service, dispatcher *Dispatcher, credentials CredentialSource, cfg HandlerConfig, log logrus.FieldLogger) *Handler {
	return &Handler{
		service:     service,
		dispatcher:  dispatcher,
		credentials: credentials,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

// Handle authenticates the request, upgrades it and starts the connection loops.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("stream-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	credential, err := h.credentials.Credential(c.Request)
	if err != nil {
		span.SetStatus(codes.Error, "invalid credential")
		c.JSON(http.StatusUnauthorized, gin.H{"error": chat.ErrAuthentication.Error()})
		return
	}

	identity, err := h.service.Authenticate(ctx, credential)
	if errors.Is(err, chat.ErrAuthentication) {
		span.SetStatus(codes.Error, "authentication failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": chat.ErrAuthentication.Error()})
		return
	}
	if err != nil {
		span.RecordError(err)
		h.log.WithError(err).Error("resolve identity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("user_id", identity.ID).Debug("websocket upgrade failed")
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      identity.ID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, identity, info, h.cfg.SendBuffer, h.limiter(), h.log)

	if !h.track(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	// The request context ends when this handler returns.
	connCtx := context.WithoutCancel(ctx)
	observability.IncWSActive()
	publishWSEvent(connCtx, "ws_connect", info, "")
	h.log.WithFields(logrus.Fields{"conn_id": info.ConnID, "user_id": identity.ID, "ip": info.IP}).Info("websocket connected")

	go client.WritePump()
	go h.serve(connCtx, client)
}

func (h *Handler) serve(ctx context.Context, client *Client) {
	defer h.wg.Done()

	readErr := client.ReadPump(ctx, h.dispatcher.Dispatch)
	rooms := h.service.Disconnect(client)
	h.untrack(client)
	observability.DecWSActive()

	info := client.Info()
	reason := readErr.Error()
	if isAbnormalClose(readErr) {
		publishWSEvent(ctx, "ws_error", info, reason)
	}
	publishWSEvent(ctx, "ws_disconnect", info, reason)
	h.log.WithFields(logrus.Fields{
		"conn_id":     info.ConnID,
		"user_id":     info.UserID,
		"rooms_left":  len(rooms),
		"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
	}).Info("websocket disconnected")
}

func (h *Handler) limiter() *rate.Limiter {
	if h.cfg.MessageRate <= 0 {
		return nil
	}
	burst := h.cfg.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(h.cfg.MessageRate), burst)
}

// track registers client unless Shutdown has started.
func (h *Handler) track(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[client] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Handler) untrack(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// ActiveConnections reports the number of open connections.
func (h *Handler) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown refuses new connections, closes every open one and waits for their loops to finish or
// for ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	for client := range h.clients {
		client.Close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isAbnormalClose(err error) bool {
	if errors.Is(err, ErrClientClosed) {
		return false
	}
	return !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
