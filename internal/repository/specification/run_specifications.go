package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByRunID filters rows belonging to a run
type ByRunID struct {
	RunID uuid.UUID
}

func (s ByRunID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}

// BySubtaskID filters rows belonging to a subtask
type BySubtaskID struct {
	SubtaskID uuid.UUID
}

func (s BySubtaskID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subtask_id = ?", s.SubtaskID)
}

// ByStepIndex filters steps by their pipeline index
type ByStepIndex struct {
	Index int
}

func (s ByStepIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("step_index = ?", s.Index)
}

// SeqAfter filters run events past the given cursor
type SeqAfter struct {
	Seq int64
}

func (s SeqAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("seq > ?", s.Seq)
}
