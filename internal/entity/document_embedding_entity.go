package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	Url            string
	Title          string
	Provider       string
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type FetchQuota struct {
	Day       string // calendar date, YYYY-MM-DD
	Count     int
	Tokens    int
	UpdatedAt time.Time
}
