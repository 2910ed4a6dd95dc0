package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one live connection. The Send queue is consumed by a single
// writer goroutine so frame order on the wire matches enqueue order.
type Client struct {
	ConnID   string
	UserID   string
	Username string
	WS       *websocket.Conn
	Send     chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID, userID, username string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
		WS:       ws,
		Send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// Enqueue hands a frame to the writer goroutine without blocking. A full
// queue means a slow client; the frame is dropped and the caller decides
// whether that matters.
func (c *Client) Enqueue(data []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("connection %s closed", c.ConnID)
	default:
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("send queue full conn=%s", c.ConnID)
	}
}

// WritePump is the single writer for this connection. It drains Send and
// keeps the peer alive with pings; any write error ends the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()

	for {
		select {
		case data := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close is idempotent; it stops the writer and closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}
