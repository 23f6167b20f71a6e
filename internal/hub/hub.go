// Package hub maintains live realtime connections, binds each connection to
// at most one room, and fans drawing and control events out to the other
// members of that room in arrival order.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// RoomDirectory is the registry view the hub needs to keep fanout-group
// membership consistent with room membership.
type RoomDirectory interface {
	Exists(roomID string) bool
	Join(roomID, memberID string) error
	Leave(roomID, memberID string)
}

// Hub tracks connections and per-room fanout groups.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	registry RoomDirectory

	// announcePresence gates the global (non-room-scoped) presence broadcast
	// on connect and disconnect.
	announcePresence bool
}

// New creates a hub backed by the given room directory.
func New(registry RoomDirectory, announcePresence bool) *Hub {
	return &Hub{
		clients:          make(map[string]*Client),
		rooms:            make(map[string]map[string]*Client),
		registry:         registry,
		announcePresence: announcePresence,
	}
}

// Register adds a connection and announces its presence to every other
// connected peer globally.
func (h *Hub) Register(conn Conn) *Client {
	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Hub] Client connected: %s, total: %d", client.ID, total)

	if h.announcePresence {
		h.broadcastGlobal(client, Event{Type: EventUserConnected, SID: client.ID})
	}
	return client
}

// Unregister removes a connection, implicitly leaving its bound room, and
// announces the departure globally.
func (h *Hub) Unregister(client *Client) {
	if roomID, ok := client.Room(); ok {
		h.LeaveRoom(client, roomID)
	}

	h.mu.Lock()
	delete(h.clients, client.ID)
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[Hub] Client disconnected: %s, remaining: %d", client.ID, total)

	if h.announcePresence {
		h.broadcastGlobal(client, Event{Type: EventUserDisconnected, SID: client.ID})
	}
}

// JoinRoom binds the client to a room and notifies the other room members.
// Joining a room the registry does not know is a tolerant no-op. A client
// bound elsewhere leaves that room first.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	if !h.registry.Exists(roomID) {
		log.Printf("[Hub] Join ignored, unknown room: %s", roomID)
		return
	}

	if current, ok := client.Room(); ok {
		if current == roomID {
			return
		}
		h.LeaveRoom(client, current)
	}

	// Registry membership and the fanout group are updated inside one
	// critical section so no observer sees one without the other.
	h.mu.Lock()
	if err := h.registry.Join(roomID, client.ID); err != nil {
		h.mu.Unlock()
		log.Printf("[Hub] Join failed for room %s: %v", roomID, err)
		return
	}
	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[string]*Client)
		h.rooms[roomID] = group
	}
	group[client.ID] = client
	client.binding = binding{kind: bound, roomID: roomID}
	h.mu.Unlock()

	log.Printf("[Hub] Client %s joined room %s", client.ID, roomID)
	h.broadcastRoom(client, roomID, Event{Type: EventUserJoinedRoom, SID: client.ID, Room: roomID})
}

// LeaveRoom unbinds the client from the room and notifies the remaining
// members. Leaving a room the client is not bound to is a no-op.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	current, ok := client.Room()
	if !ok || current != roomID {
		h.mu.Unlock()
		return
	}
	client.binding = binding{kind: unbound}
	if group, ok := h.rooms[roomID]; ok {
		delete(group, client.ID)
		if len(group) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.registry.Leave(roomID, client.ID)
	h.mu.Unlock()

	log.Printf("[Hub] Client %s left room %s", client.ID, roomID)
	h.broadcastRoom(client, roomID, Event{Type: EventUserLeftRoom, SID: client.ID, Room: roomID})
}

// RelayDraw forwards a drawing payload verbatim to the other members of the
// room. The payload is not validated here; persistence is a separate
// explicit save.
func (h *Hub) RelayDraw(client *Client, roomID string, payload json.RawMessage) {
	h.broadcastRoom(client, roomID, Event{
		Type: EventDrawingUpdate,
		SID:  client.ID,
		Room: roomID,
		Data: payload,
	})
}

// RelayClear forwards a clear-canvas control event to the other members of
// the room. It does not mutate stored canvas state.
func (h *Hub) RelayClear(client *Client, roomID string) {
	h.broadcastRoom(client, roomID, Event{Type: EventCanvasCleared, Room: roomID})
}

// broadcastGlobal sends an event to every connected client except the sender.
func (h *Hub) broadcastGlobal(sender *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Hub] Failed to marshal event: %v", err)
		return
	}

	for _, peer := range h.peersSnapshot(sender, "") {
		if err := peer.send(data); err != nil {
			log.Printf("[Hub] Failed to send to client %s: %v", peer.ID, err)
		}
	}
}

// broadcastRoom sends an event to every member of the room except the sender.
// Delivery is best-effort: a failed write to one peer never blocks the rest.
func (h *Hub) broadcastRoom(sender *Client, roomID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Hub] Failed to marshal event: %v", err)
		return
	}

	for _, peer := range h.peersSnapshot(sender, roomID) {
		if err := peer.send(data); err != nil {
			log.Printf("[Hub] Failed to send to client %s in room %s: %v", peer.ID, roomID, err)
		}
	}
}

// peersSnapshot copies the receiver set under the read lock so writes happen
// outside it. An empty roomID selects all connected clients.
func (h *Hub) peersSnapshot(sender *Client, roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var source map[string]*Client
	if roomID == "" {
		source = h.clients
	} else {
		source = h.rooms[roomID]
	}

	peers := make([]*Client, 0, len(source))
	for id, peer := range source {
		if sender != nil && id == sender.ID {
			continue
		}
		peers = append(peers, peer)
	}
	return peers
}
