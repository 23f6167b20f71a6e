package model

import "time"

// CanvasRevision is one archived canvas save. Rows are append-only; the
// archive is an optional durable mirror of the in-memory canvas store.
type CanvasRevision struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID      string    `gorm:"size:64;not null;index:idx_revisions_room_created" json:"room_id"`
	StrokeCount int       `gorm:"not null" json:"stroke_count"`
	Payload     string    `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_revisions_room_created" json:"created_at"`
}

func (CanvasRevision) TableName() string {
	return "canvas_revisions"
}
