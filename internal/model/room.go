package model

import "time"

// Room is a named collaboration session with one associated canvas.
type Room struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	ActiveUsers  int       `json:"active_users"`
	CanvasWidth  int       `json:"canvas_width"`
	CanvasHeight int       `json:"canvas_height"`
}
