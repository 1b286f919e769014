package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Run struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Query       string    `gorm:"type:text;not null"`
	Status      string    `gorm:"type:varchar(32);not null;default:'created'"`
	CurrentStep int       `gorm:"not null;default:1"`
	Generation  int       `gorm:"not null;default:0"` // bumped on confirm/rerun; stale executors stop
	Error       *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Run) TableName() string {
	return "runs"
}

type Step struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RunId      uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_steps_run_index,priority:1"`
	Index      int            `gorm:"column:step_index;not null;uniqueIndex:idx_steps_run_index,priority:2"`
	Status     string         `gorm:"type:varchar(32);not null;default:'pending'"`
	InputHash  *string        `gorm:"type:varchar(64)"`
	Output     datatypes.JSON `gorm:"type:jsonb"`
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      *string `gorm:"type:text"`
}

func (Step) TableName() string {
	return "steps"
}

type Subtask struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:text;not null"`
	Order     int       `gorm:"column:task_order;not null"`
	Confirmed bool      `gorm:"not null;default:false"`
}

func (Subtask) TableName() string {
	return "subtasks"
}
