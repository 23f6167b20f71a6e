package handler

import (
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"

	"whiteboard-backend/internal/hub"
)

// WSMessage is the envelope of every client-to-server realtime message.
type WSMessage struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WebSocket returns the connection handler for the realtime endpoint. Each
// connection is registered with the hub for its whole lifetime and unbound
// from its room when the read loop ends.
func WebSocket(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		client := h.Register(conn)
		defer h.Unregister(client)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[WS] client %s read error: %v", client.ID, err)
				}
				return
			}

			var msg WSMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("[WS] client %s sent malformed message: %v", client.ID, err)
				continue
			}

			switch msg.Type {
			case "join_room":
				h.JoinRoom(client, msg.Room)
			case "leave_room":
				h.LeaveRoom(client, msg.Room)
			case "draw_data":
				h.RelayDraw(client, msg.Room, msg.Data)
			case "clear_canvas":
				h.RelayClear(client, msg.Room)
			default:
				log.Printf("[WS] client %s sent unknown message type %q", client.ID, msg.Type)
			}
		}
	}
}
