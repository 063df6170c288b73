package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Client is one websocket connection. Writes go through the send channel and
// a single writer goroutine; the reader loop lives in the handler.
type Client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	log       *zap.SugaredLogger

	mu     sync.Mutex
	userID int64
	bound  bool
	closed bool
}

func NewClient(sessionID string, conn *websocket.Conn, sendBuffer int, log *zap.SugaredLogger) *Client {
	return &Client{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		log:       log,
	}
}

func (c *Client) SessionID() string { return c.sessionID }

// Bind records the user behind this connection. The binding happens when the
// user's first join event arrives, not at upgrade time, and is what makes
// disconnect cleanup reachable.
func (c *Client) Bind(userID int64) {
	c.mu.Lock()
	c.userID = userID
	c.bound = true
	c.mu.Unlock()
}

// BoundUser returns the user bound to this connection, if any join has
// happened yet.
func (c *Client) BoundUser() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.bound
}

// Enqueue hands a frame to the writer goroutine. A slow consumer whose
// buffer is full loses the frame, and a frame racing the disconnect is
// dropped the same way; the durable copy, when one exists, covers them. The
// mutex pairs with Close so a late frame can never hit a closed channel.
func (c *Client) Enqueue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.log.Warnw("send buffer full, dropping frame", "session_id", c.sessionID)
	}
}

// Close shuts the send channel exactly once; the writer goroutine closes the
// underlying socket on its way out.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings. It owns all writes to the underlying conn.
func (c *Client) writePump(pingInterval, writeDeadline time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debugw("write failed", "session_id", c.sessionID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
