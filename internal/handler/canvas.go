package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/archive"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

// CanvasHandler serves canvas documents, analytics, and the revision history.
type CanvasHandler struct {
	store            *store.Store
	archive          *archive.Archive
	analyticsEnabled bool
}

// NewCanvasHandler creates a CanvasHandler. archive may be nil when revision
// history is disabled.
func NewCanvasHandler(s *store.Store, a *archive.Archive, analyticsEnabled bool) *CanvasHandler {
	return &CanvasHandler{store: s, archive: a, analyticsEnabled: analyticsEnabled}
}

// SaveCanvas validates and stores the drawing document for a room.
func (h *CanvasHandler) SaveCanvas(c *fiber.Ctx) error {
	roomID := c.Query("room_id")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "room_id is required"})
	}

	var doc model.DrawingData
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	analytics, err := h.store.Canvas.Save(roomID, &doc)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRoomNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
		case errors.Is(err, store.ErrInvalidDocument):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save canvas"})
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"analytics": analytics,
	})
}

// GetCanvas returns the stored drawing document for a room.
func (h *CanvasHandler) GetCanvas(c *fiber.Ctx) error {
	doc, err := h.store.Canvas.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrCanvasNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "canvas not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get canvas"})
	}
	return c.JSON(doc)
}

// GetAnalytics returns the analytics for a room's canvas. Any id with no
// computed analytics, including an unknown room, yields the zero-valued
// cold-start record.
func (h *CanvasHandler) GetAnalytics(c *fiber.Ctx) error {
	if !h.analyticsEnabled {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "analytics is disabled"})
	}
	return c.JSON(h.store.Canvas.Analytics(c.Params("id")))
}

// GetRevisions returns the persisted revision history for a room, newest
// first.
func (h *CanvasHandler) GetRevisions(c *fiber.Ctx) error {
	if h.archive == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "revision history is disabled"})
	}

	limit := c.QueryInt("limit", 0)
	revisions, err := h.archive.Revisions(c.Params("id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load revisions"})
	}
	return c.JSON(fiber.Map{
		"room_id":   c.Params("id"),
		"revisions": revisions,
	})
}
