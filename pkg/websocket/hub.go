package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is the frame exchanged with socket clients. Data holds the
// event payload as sent by the server or the client.
type Message struct {
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected clients and the rooms they joined. Delivery is
// local to this process; cross-instance fan-out happens above the hub.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		log:        log,
	}
}

// Run serves registrations until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				h.removeLocked(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Publish delivers a message to every client in room. Clients whose send
// buffer is full are disconnected.
func (h *Hub) Publish(room string, message Message) int {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	message.Room = room
	data, err := json.Marshal(message)
	if err != nil {
		h.log.WithError(err).WithField("room", room).Error("Failed to encode socket message")
		return 0
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	delivered := 0
	for client := range h.rooms[room] {
		select {
		case client.send <- data:
			delivered++
		default:
			h.dropSlow(client)
		}
	}
	return delivered
}

func (h *Hub) RoomSize(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	for _, room := range client.initialRooms {
		h.joinLocked(client, room)
	}

	h.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"role":      client.Role,
		"rooms":     client.initialRooms,
	}).Info("Socket client registered")

	joined, _ := json.Marshal(map[string]interface{}{"rooms": client.initialRooms})
	h.sendLocked(client, Message{Type: "joined", Timestamp: time.Now().Unix(), Data: joined})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.clients[client] {
		h.removeLocked(client)
		h.log.WithField("client_id", client.ID).Info("Socket client unregistered")
	}
}

func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	close(client.send)
}

func (h *Hub) joinLocked(client *Client, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

func (h *Hub) leaveLocked(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
}

func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.leaveLocked(client, room)
}

func (h *Hub) sendLocked(client *Client, message Message) {
	data, _ := json.Marshal(message)
	select {
	case client.send <- data:
	default:
		h.dropSlow(client)
	}
}

// dropSlow hands a stuck client to the run loop without blocking the caller.
func (h *Hub) dropSlow(client *Client) {
	select {
	case h.unregister <- client:
	default:
	}
}
