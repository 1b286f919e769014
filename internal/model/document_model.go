package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId     uuid.UUID `gorm:"type:uuid;not null;index"`
	SubtaskId uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     *string   `gorm:"type:text"`
	Content   string    `gorm:"type:text;not null"`
	Kind      string    `gorm:"type:varchar(16);not null;default:'web'"`
	Score     *float64
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Sources []Source `gorm:"foreignKey:DocumentId"`
}

func (Document) TableName() string {
	return "documents"
}

type Source struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DocumentId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Provider   string         `gorm:"type:varchar(16);not null"`
	Url        *string        `gorm:"type:text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
}

func (Source) TableName() string {
	return "sources"
}

type Summary struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId      uuid.UUID `gorm:"type:uuid;not null;index"`
	SubtaskId  uuid.UUID `gorm:"type:uuid;not null;index"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	Text       string    `gorm:"column:summary_text;type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Summary) TableName() string {
	return "summaries"
}

type FinalAnswer struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (FinalAnswer) TableName() string {
	return "final_answers"
}
