// Package ws streams hub events over a websocket connection. It is a
// mirror of the SSE endpoint for clients that prefer a socket.
package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"parlor/internal/notify"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 15 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = 10 * time.Second

	// Clients only listen; anything bigger than a close frame is noise.
	maxMessageSize = 512
)

// Client pumps events from a hub subscriber to one websocket peer.
type Client struct {
	hub  *notify.Hub
	sub  *notify.Subscriber
	conn *websocket.Conn
}

func NewClient(hub *notify.Hub, sub *notify.Subscriber, conn *websocket.Conn) *Client {
	return &Client{hub: hub, sub: sub, conn: conn}
}

// ReadPump discards inbound frames; it exists to process control frames
// and to notice the peer going away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "component", "ws", "error", err)
			}
			return
		}
	}
}

// WritePump forwards subscriber events and keeps the connection alive
// with pings. It exits when the hub closes the subscriber.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.C():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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
