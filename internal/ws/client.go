package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"stream-chat-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024

	// DefaultSendBuffer is the outbound queue length per connection.
	DefaultSendBuffer = 256
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("client send buffer full")
)

// Client is one websocket connection. Frames queued with Send are written in
// order by WritePump; inbound frames are handled one at a time by ReadPump.
type Client struct {
	info     ConnInfo
	identity models.Identity
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	once     sync.Once
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

// NewClient wraps an upgraded connection. A nil limiter disables flood control.
func NewClient(conn *websocket.Conn, identity models.Identity, info ConnInfo, buffer int, limiter *rate.Limiter, log logrus.FieldLogger) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		info:     info,
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		limiter:  limiter,
		log:      log.WithFields(logrus.Fields{"conn_id": info.ConnID, "user_id": identity.ID}),
	}
}

func (c *Client) ID() string { return c.info.ConnID }

func (c *Client) Identity() models.Identity { return c.identity }

func (c *Client) Info() ConnInfo { return c.info }

// Send queues a frame without blocking. A client whose queue is full is
// closed rather than allowed to stall the broadcaster.
func (c *Client) Send(frame []byte) error {
	if c.closed() {
		return ErrClientClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("send buffer full, dropping connection")
		c.Close()
		return ErrSlowConsumer
	}
}

// Allow reports whether the client may send another chat message now.
func (c *Client) Allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Close stops the write loop, which closes the socket. Safe to call repeatedly.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump hands each text frame to handle until the connection fails and
// returns why it stopped. A connection closed from this side yields an error
// wrapping ErrClientClosed.
func (c *Client) ReadPump(ctx context.Context, handle func(context.Context, *Client, []byte)) error {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed() {
				return fmt.Errorf("%w: %v", ErrClientClosed, err)
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			} else {
				c.log.Debug("websocket closed")
			}
			return err
		}
		if messageType != websocket.TextMessage {
			c.log.Debugf("ignoring frame type %d", messageType)
			continue
		}
		handle(ctx, c, message)
	}
}

// WritePump drains the send queue to the socket and keeps the connection
// alive with pings. It closes the socket when it returns.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.WithError(err).Warn("websocket write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("websocket ping failed")
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes frames already queued when the client was closed.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}
