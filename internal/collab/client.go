package collab

import (
	"encoding/json"
	"time"

	"collab-app/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client wraps one live websocket connection. The userID field is set
// once the client announces presence and is the inverse association the
// registry needs on disconnect.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	addr   string
	userID string
}

func NewClient(hub *Hub, conn *websocket.Conn, addr string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		addr: addr,
	}
}

// ReadPump reads event frames off the socket and hands them to the hub.
// It owns the disconnect path: when the read loop exits for any reason
// the client is unregistered and the connection closed.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error from %s: %v", c.addr, err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			logger.Warn("Unparseable frame from %s", c.addr)
			c.enqueue(EventError, errorPayload{Message: "invalid event payload"})
			continue
		}

		c.hub.events <- inboundEvent{client: c, env: env}
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error to %s: %v", c.addr, err)
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

// enqueue marshals an outbound event onto the send channel without
// blocking. Delivery is fire and forget; a client that cannot keep up
// loses the frame rather than stalling the hub.
func (c *Client) enqueue(event string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			logger.Error("Error marshaling %s payload: %v", event, err)
			return
		}
		data = b
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		logger.Error("Error marshaling %s envelope: %v", event, err)
		return
	}

	select {
	case c.send <- frame:
	default:
		logger.Warn("Send buffer full for %s; dropping %s", c.addr, event)
	}
}
