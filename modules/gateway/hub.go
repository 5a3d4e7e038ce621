package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Conn is the transport surface the hub needs from a websocket connection.
// *websocket.Conn satisfies it; tests use fakes.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// TextMessage mirrors the websocket text frame type so the hub does not
// import the transport package.
const TextMessage = 1

// Identity is the authenticated user attached to a connection at handshake.
type Identity struct {
	UserID   uint
	Username string
}

// Client represents one live authenticated connection on this process.
type Client struct {
	ID          string
	Identity    Identity
	ConnectedAt time.Time

	conn    Conn
	writeMu sync.Mutex
}

// send writes a frame to the client. Writes are serialized per connection.
func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(TextMessage, data)
}

// Envelope is the wire format for every frame exchanged with clients.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload is the structured error reported to a single connection.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Hub tracks the connections held by this process and their room
// membership. State is process-local: other processes see none of it, which
// is why the relay exists.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client         // clientID -> client
	rooms       map[string]map[string]bool // roomID -> set of clientIDs
	clientRooms map[string]map[string]bool // clientID -> set of roomIDs
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]bool),
		clientRooms: make(map[string]map[string]bool),
	}
}

// Register adds an authenticated connection to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.clientRooms[client.ID] = make(map[string]bool)
	log.Printf("[hub] Client %s connected (user %d)", client.ID, client.Identity.UserID)
}

// Unregister removes a connection from the hub and from every room it
// joined. Reason is the transport-level disconnect reason.
func (h *Hub) Unregister(clientID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	for roomID := range h.clientRooms[clientID] {
		h.removeFromRoom(roomID, clientID)
	}
	delete(h.clientRooms, clientID)
	delete(h.clients, clientID)

	log.Printf("[hub] Client %s disconnected (user %d, reason: %s)",
		clientID, client.Identity.UserID, reason)
}

// JoinRoom adds a connection to a room on this process.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
	h.clientRooms[clientID][roomID] = true
	log.Printf("[hub] Client %s joined room %s", clientID, roomID)
}

// LeaveRoom removes a connection from a room.
func (h *Hub) LeaveRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}
	h.removeFromRoom(roomID, clientID)
	delete(h.clientRooms[clientID], roomID)
	log.Printf("[hub] Client %s left room %s", clientID, roomID)
}

// removeFromRoom deletes a membership entry. Caller holds the lock.
func (h *Hub) removeFromRoom(roomID, clientID string) {
	if h.rooms[roomID] == nil {
		return
	}
	delete(h.rooms[roomID], clientID)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

// InRoom reports whether a connection is currently in a room.
func (h *Hub) InRoom(clientID, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientRooms[clientID][roomID]
}

// EmitToRoom delivers an event to every connection on this process
// currently in the room. Connections on other processes receive the same
// event through their own relay subscriber.
func (h *Hub) EmitToRoom(roomID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for clientID := range h.rooms[roomID] {
		if client, ok := h.clients[clientID]; ok {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(data); err != nil {
			log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
		}
	}
}

// EmitToConnection delivers an event to a single connection.
func (h *Hub) EmitToConnection(clientID, event string, payload any) {
	data, err := marshalEvent(event, payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := client.send(data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", clientID, err)
	}
}

// EmitError reports a structured error to a single connection.
func (h *Hub) EmitError(clientID, message, code string) {
	data, err := json.Marshal(Envelope{
		Type:  "error",
		Error: &ErrorPayload{Message: message, Code: code},
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := client.send(data); err != nil {
		log.Printf("[hub] Failed to send error to client %s: %v", clientID, err)
	}
}

// CloseAll closes every connection. Used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.clientRooms = make(map[string]map[string]bool)
}

// ClientCount returns the number of connections on this process.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of local connections in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// marshalEvent wraps payload in the wire envelope.
func marshalEvent(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Payload: raw})
}
