package notifications

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pixelpost/internal/middleware"
	"pixelpost/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must stay below pongWait

	// Peers only send control frames on the event stream.
	maxMessageSize = 512

	sendBuffer = 64
)

// Client is one websocket subscriber of the event stream.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint

	send chan []byte
	done chan struct{}
	once sync.Once

	// dropped counts events lost to a full buffer since the last successful write.
	dropped atomic.Int64
}

// NewClient creates a Client for userID. conn may be nil in tests.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// UserID returns the subscriber's user id.
func (c *Client) UserID() uint { return c.userID }

func (c *Client) close() {
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

// TrySend queues an event without blocking. When the buffer is full the event
// is counted as dropped and the writer reports the gap on its next frame.
func (c *Client) TrySend(message []byte) {
	if c.closed() {
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
		return
	}
	select {
	case c.send <- message:
	default:
		if c.dropped.Add(1) == 1 {
			middleware.Logger.Warn("websocket buffer full, dropping events", slog.Uint64("user_id", uint64(c.userID)))
		}
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
	}
}

func dropNotice(n int64) []byte {
	return fmt.Appendf(nil, `{"type":"events_dropped","payload":{"reason":"buffer_full","count":%d}}`, n)
}

// ReadPump keeps the read deadline fresh until the peer disconnects, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer c.hub.UnregisterClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read failed",
					slog.Uint64("user_id", uint64(c.userID)), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump is the only writer on the connection. It closes the connection
// when the client is unregistered or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection closed"))
			return

		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
			if n := c.dropped.Swap(0); n > 0 {
				if err := c.write(websocket.TextMessage, dropNotice(n)); err != nil {
					return
				}
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}
