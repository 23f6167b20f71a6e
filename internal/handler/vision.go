package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/vision"
)

// VisionHandler serves the image analysis endpoints. Each capability is
// feature-flagged independently.
type VisionHandler struct {
	svc          *vision.Service
	shapeEnabled bool
	ocrEnabled   bool
}

// NewVisionHandler creates a VisionHandler. svc may be nil when both image
// analysis features are disabled.
func NewVisionHandler(svc *vision.Service, cfg config.VisionConfig) *VisionHandler {
	return &VisionHandler{
		svc:          svc,
		shapeEnabled: cfg.ShapeDetectionEnabled,
		ocrEnabled:   cfg.OCREnabled,
	}
}

// DetectShapes classifies the shapes drawn in a base64-encoded image.
func (h *VisionHandler) DetectShapes(c *fiber.Ctx) error {
	if h.svc == nil || !h.shapeEnabled {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "shape detection is disabled"})
	}

	var req model.ShapeDetectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ImageData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image_data is required"})
	}

	result, err := h.svc.DetectShapes(req)
	if err != nil {
		log.Printf("[Vision] shape detection failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// ExtractText runs OCR over a base64-encoded image.
func (h *VisionHandler) ExtractText(c *fiber.Ctx) error {
	if h.svc == nil || !h.ocrEnabled {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "text extraction is disabled"})
	}

	var req model.OCRRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ImageData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image_data is required"})
	}

	result, err := h.svc.ExtractText(req)
	if err != nil {
		log.Printf("[Vision] text extraction failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}
