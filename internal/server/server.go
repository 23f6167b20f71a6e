package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"whiteboard-backend/internal/archive"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/store"
	"whiteboard-backend/internal/vision"
)

// Server wires the HTTP surface of the whiteboard backend.
type Server struct {
	app *fiber.App
	cfg *config.Config
}

// New builds the fiber app, mounts middleware and registers all routes.
// archiveDB and visionSvc may be nil when their features are disabled.
func New(cfg *config.Config, st *store.Store, wsHub *hub.Hub, visionSvc *vision.Service, archiveDB *archive.Archive) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "whiteboard-backend",
		BodyLimit:    cfg.Upload.MaxFileSize,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowHeaders: cfg.CORS.AllowHeaders,
	}))

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Printf("[Server] failed to create upload dir %s: %v", cfg.Upload.Dir, err)
	}
	app.Static("/uploads", cfg.Upload.Dir)

	rooms := handler.NewRoomHandler(st)
	canvas := handler.NewCanvasHandler(st, archiveDB, cfg.Vision.AnalyticsEnabled)
	visionHandler := handler.NewVisionHandler(visionSvc, cfg.Vision)
	upload := handler.NewUploadHandler(cfg.Upload)

	api := app.Group("/api/v1")
	api.Get("/health", handler.Health)

	api.Post("/rooms", rooms.CreateRoom)
	api.Get("/rooms/:id", rooms.GetRoom)
	api.Delete("/rooms/:id", rooms.DeleteRoom)

	api.Post("/canvas/save", canvas.SaveCanvas)
	api.Get("/canvas/:id", canvas.GetCanvas)
	api.Get("/canvas/:id/revisions", canvas.GetRevisions)
	api.Get("/analytics/:id", canvas.GetAnalytics)

	ai := api.Group("/ai", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}))
	ai.Post("/detect-shapes", visionHandler.DetectShapes)
	ai.Post("/ocr", visionHandler.ExtractText)

	api.Post("/upload", upload.UploadImage)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(handler.WebSocket(wsHub), websocket.Config{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
	}))

	return &Server{app: app, cfg: cfg}
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] listening on %s", s.cfg.Server.Port)
		errCh <- s.app.Listen(s.cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[Server] received %s, shutting down", sig)
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
}
