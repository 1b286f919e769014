package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id        uuid.UUID
	RunId     uuid.UUID
	SubtaskId uuid.UUID
	Title     *string
	Content   string
	Kind      string
	Score     *float64
	CreatedAt time.Time

	// Sources are ordered; downstream consumers read Sources[0] only.
	Sources []*Source
}

type Source struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Provider   string
	Url        *string
	Metadata   map[string]interface{}
}

type Summary struct {
	Id         uuid.UUID
	RunId      uuid.UUID
	SubtaskId  uuid.UUID
	DocumentId uuid.UUID
	Text       string
	CreatedAt  time.Time
}

type FinalAnswer struct {
	Id        uuid.UUID
	RunId     uuid.UUID
	Content   string
	CreatedAt time.Time
}
