package handler

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"whiteboard-backend/internal/config"
)

// UploadHandler stores image files uploaded through the API.
type UploadHandler struct {
	cfg config.UploadConfig
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

// UploadImage accepts a multipart image under the "file" field and saves it
// under the upload directory with a fresh name.
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only image uploads are allowed"})
	}
	if file.Size > int64(h.cfg.MaxFileSize) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is too large"})
	}

	ext := filepath.Ext(file.Filename)
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	dest := filepath.Join(h.cfg.Dir, name)

	if err := c.SaveFile(file, dest); err != nil {
		log.Printf("[Upload] failed to save %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	return c.JSON(fiber.Map{
		"image_url": "/uploads/" + name,
	})
}
