package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one websocket connection. Its context is cancelled when the
// connection goes away.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	ctx            context.Context
	cancel         context.CancelFunc
	UserID         string
	OrganizationID string
}

func newClient(hub *Hub, conn *websocket.Conn, userID, orgID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		ctx:            ctx,
		cancel:         cancel,
		UserID:         userID,
		OrganizationID: orgID,
	}
}

// Context is done once the client disconnects.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send queues a frame; a client that cannot keep up loses frames.
func (c *Client) Send(message Message) bool {
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}

	defer func() {
		// send may be closed by unregister between the check and the write
		_ = recover()
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen; anything they send is discarded.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("WebSocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
