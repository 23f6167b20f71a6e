package main

import (
	"log"

	"whiteboard-backend/internal/archive"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/server"
	"whiteboard-backend/internal/store"
	"whiteboard-backend/internal/vision"
)

func main() {
	cfg := config.Load()

	st := store.New(store.Options{
		DefaultCanvasWidth:  cfg.Canvas.DefaultWidth,
		DefaultCanvasHeight: cfg.Canvas.DefaultHeight,
		MaxCanvasDimension:  cfg.Canvas.MaxDimension,
	})

	var archiveDB *archive.Archive
	if cfg.Database.Host != "" {
		db, err := archive.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("[Main] failed to connect revision archive: %v", err)
		}
		archiveDB = db
		defer archiveDB.Close()
		st.Canvas.SetRevisionSink(archiveDB)
		log.Println("[Main] canvas revision archive enabled")
	}

	var visionSvc *vision.Service
	if cfg.Vision.ShapeDetectionEnabled || cfg.Vision.OCREnabled {
		visionSvc = vision.New(cfg.Vision)
	}

	wsHub := hub.New(st.Rooms, cfg.WebSocket.PresenceAnnounce)

	srv := server.New(cfg, st, wsHub, visionSvc, archiveDB)
	if err := srv.Start(); err != nil {
		log.Fatalf("[Main] server error: %v", err)
	}
}
