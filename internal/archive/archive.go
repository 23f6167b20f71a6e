// Package archive persists saved canvas documents as an append-only revision
// log. It is an optional durable mirror of the in-memory canvas store; the
// realtime path never depends on it.
package archive

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/model"
)

// Archive records canvas revisions in PostgreSQL.
type Archive struct {
	db *gorm.DB
}

// Connect opens the database and migrates the revision table.
func Connect(cfg config.DatabaseConfig) (*Archive, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.CanvasRevision{}); err != nil {
		return nil, fmt.Errorf("failed to migrate revision table: %w", err)
	}

	return &Archive{db: db}, nil
}

// Record appends one revision row for a saved document.
func (a *Archive) Record(roomID string, doc *model.DrawingData) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	revision := model.CanvasRevision{
		RoomID:      roomID,
		StrokeCount: len(doc.Strokes),
		Payload:     string(payload),
	}
	if err := a.db.Create(&revision).Error; err != nil {
		return fmt.Errorf("failed to create revision: %w", err)
	}
	return nil
}

// Revisions returns the most recent revisions for a room, newest first.
func (a *Archive) Revisions(roomID string, limit int) ([]model.CanvasRevision, error) {
	if limit <= 0 {
		limit = 20
	}

	var revisions []model.CanvasRevision
	err := a.db.
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&revisions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revisions: %w", err)
	}
	return revisions, nil
}

// Close releases the underlying connection pool.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
