package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fleetdesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// Message is one realtime frame. RoomID targets a room; empty goes to
// every connected client.
type Message struct {
	Type           string      `json:"type"`
	RoomID         string      `json:"room_id,omitempty"`
	UserID         string      `json:"user_id,omitempty"`
	OrganizationID string      `json:"organization_id,omitempty"`
	Timestamp      int64       `json:"timestamp"`
	Data           interface{} `json:"data,omitempty"`
}

func UserRoom(userID string) string { return "user_" + userID }

func OrganizationRoom(orgID string) string { return "org_" + orgID }

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *logger.Logger
}

// NewHub creates a hub. An empty allowedOrigins accepts any origin.
func NewHub(log *logger.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			if message.RoomID != "" {
				h.sendToRoom(message.RoomID, message)
			} else {
				h.sendToAll(message)
			}
		}
	}
}

// Publish queues a frame for delivery. It drops the frame when the hub is
// saturated rather than block the caller.
func (h *Hub) Publish(message Message) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.WithField("room_id", message.RoomID).Warn("Realtime hub saturated, dropping frame")
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, UserRoom(client.UserID))
	if client.OrganizationID != "" {
		h.joinRoom(client, OrganizationRoom(client.OrganizationID))
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id":         client.UserID,
		"organization_id": client.OrganizationID,
	}).Debug("Realtime client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID, room := range h.rooms {
		if _, exists := room[client]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

func (h *Hub) sendToAll(message Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		client.Send(message)
	}
}

func (h *Hub) sendToRoom(roomID string, message Message) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.rooms[roomID] {
		client.Send(message)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// RoomSize reports how many clients are in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[roomID])
}
