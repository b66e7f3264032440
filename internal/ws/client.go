package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gmscreen/initiative/internal/services/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Per-client send buffer; overflow drops the message
	sendBuffer = 64
)

// Client is one connected peer: a websocket connection, its session
// state and its outbound queue
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	handler *Handler
	logger  *slog.Logger

	session     *session.Session
	send        chan []byte
	connectedAt time.Time
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, handler *Handler, logger *slog.Logger, connectedAt time.Time) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		handler:     handler,
		logger:      logger,
		session:     session.New(),
		send:        make(chan []byte, sendBuffer),
		connectedAt: connectedAt,
	}
}

// Send queues a message for this client only, dropping it if the buffer
// is full
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client message dropped - buffer full")
	}
}

// ReadPump reads requests off the connection and dispatches them one at a
// time, so a connection's operations never interleave. Blocks until the
// connection drops.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.session.Clear()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		if resp := c.handler.Handle(ctx, c, msg); resp != nil {
			c.Send(resp)
		}
	}
}

// WritePump drains the send queue onto the connection and keeps the
// connection alive with pings. Blocks until the send channel closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
