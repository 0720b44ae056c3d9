package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"telejam/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

// Client is one live connection for one authenticated user.
type Client struct {
	UserID string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// enqueue hands a payload to the write pump without blocking. A full buffer
// or a closed connection drops the payload: pushes are best-effort and the
// registry must never wait on a slow consumer.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- payload:
		return true
	default:
		logger.Warn("websocket: dropping event for slow client %s", c.UserID)
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump consumes inbound frames until the connection drops, then
// unregisters the client and persists the user's last-seen timestamp.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister(c)
		c.close()
		if m.userRepo != nil {
			if err := m.userRepo.UpdateLastSeen(context.Background(), c.UserID, time.Now()); err != nil {
				logger.Error("websocket: failed to update last_seen for %s: %v", c.UserID, err)
			}
		}
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket: read error for %s: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(c, payload)
	}
}

// WritePump serializes all writes to the underlying connection.
func (c *Client) WritePump() {
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("websocket: write error for %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// inboundEvent is the envelope for client-originated frames. Data stays raw
// until the type is recognized.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
