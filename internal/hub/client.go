package hub

import (
	"encoding/json"
	"sync"
)

// Conn is the write side of a realtime connection. The websocket transport
// satisfies it; tests use in-memory fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}

// textMessage matches websocket.TextMessage without importing the transport
// package here.
const textMessage = 1

// bindingKind tags the connection's room binding state.
type bindingKind int

const (
	unbound bindingKind = iota
	bound
)

// binding is the tagged variant for a connection's room membership: a
// connection is either unbound or bound to exactly one room.
type binding struct {
	kind   bindingKind
	roomID string
}

// Client is one live connection registered with the hub.
type Client struct {
	ID string

	conn    Conn
	writeMu sync.Mutex
	binding binding
}

// Room returns the bound room id and whether the client is bound.
func (c *Client) Room() (string, bool) {
	if c.binding.kind == bound {
		return c.binding.roomID, true
	}
	return "", false
}

// send writes one JSON event to the client. Writes are serialized per
// connection; errors are returned for the caller to log, delivery is
// best-effort.
func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(textMessage, data)
}

// Event is a server-to-client realtime event.
type Event struct {
	Type string          `json:"type"`
	SID  string          `json:"sid,omitempty"`
	Room string          `json:"room,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Server-to-client event types.
const (
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventUserJoinedRoom   = "user_joined_room"
	EventUserLeftRoom     = "user_left_room"
	EventDrawingUpdate    = "drawing_update"
	EventCanvasCleared    = "canvas_cleared"
)
