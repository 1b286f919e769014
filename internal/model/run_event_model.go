package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RunEvent struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RunId     uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_run_events_run_seq,priority:1"`
	Seq       int64          `gorm:"not null;uniqueIndex:idx_run_events_run_seq,priority:2"`
	Type      string         `gorm:"type:varchar(64);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (RunEvent) TableName() string {
	return "run_events"
}
