package store

import (
	"time"

	"gorm.io/datatypes"
)

// ViewerSession is the heartbeat session id announced for a display token.
type ViewerSession struct {
	Token     string    `gorm:"primaryKey;size:128"`
	SessionID string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// SnapshotCache is the last good snapshot per token and rotation slot.
type SnapshotCache struct {
	Token         string         `gorm:"primaryKey;size:128"`
	RotationIndex int            `gorm:"primaryKey"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt     time.Time      `gorm:"not null;index"`
}

func (SnapshotCache) TableName() string { return "snapshot_cache" }

// PlayEvent records admission changes, transitions and not-found episodes.
type PlayEvent struct {
	ID        uint           `gorm:"primaryKey"`
	Token     string         `gorm:"size:128;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null;index"`
}
