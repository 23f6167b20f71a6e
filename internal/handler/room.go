package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/store"
)

// RoomHandler serves room lifecycle requests.
type RoomHandler struct {
	store *store.Store
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(s *store.Store) *RoomHandler {
	return &RoomHandler{store: s}
}

// CreateRoomRequest is the body of POST /rooms.
type CreateRoomRequest struct {
	RoomName string `json:"room_name"`
}

// CreateRoom creates a new whiteboard room.
func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.RoomName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_name is required"})
	}

	room := h.store.Rooms.Create(req.RoomName)
	return c.JSON(fiber.Map{
		"room_id":   room.ID,
		"room_name": room.Name,
	})
}

// GetRoom returns the room record.
func (h *RoomHandler) GetRoom(c *fiber.Ctx) error {
	room, err := h.store.Rooms.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get room"})
	}
	return c.JSON(room)
}

// DeleteRoom removes a room and its canvas data. Deleting an absent room
// succeeds.
func (h *RoomHandler) DeleteRoom(c *fiber.Ctx) error {
	h.store.Rooms.Delete(c.Params("id"))
	return c.JSON(fiber.Map{"success": true})
}
