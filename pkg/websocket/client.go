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
	sendBuffer     = 256
)

// MessageHandler receives frames sent by a client other than the ones the
// hub answers itself.
type MessageHandler func(ctx context.Context, client *Client, message Message)

type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	rooms        map[string]bool
	initialRooms []string
	onMessage    MessageHandler

	ID   string
	Role string
}

func NewClient(hub *Hub, conn *websocket.Conn, identity Identity, onMessage MessageHandler) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		rooms:        make(map[string]bool),
		initialRooms: identity.Rooms,
		onMessage:    onMessage,
		ID:           identity.ID,
		Role:         identity.Role,
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("client_id", c.ID).Warn("Socket closed unexpectedly")
			}
			return
		}
		c.handleMessage(ctx, raw)
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.hub.log.WithError(err).WithField("client_id", c.ID).Debug("Dropping malformed socket frame")
		return
	}
	msg.Timestamp = time.Now().Unix()

	switch msg.Type {
	case "ping":
		c.Reply(Message{Type: "pong"})

	case "leave_room":
		var body struct {
			Room string `json:"room"`
		}
		if err := json.Unmarshal(msg.Data, &body); err == nil && body.Room != "" {
			c.hub.LeaveRoom(c, body.Room)
		}

	default:
		if c.onMessage != nil {
			c.onMessage(ctx, c, msg)
		}
	}
}

// Reply sends a message to this client only.
func (c *Client) Reply(message Message) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if c.hub.clients[c] {
		c.hub.sendLocked(c, message)
	}
}
