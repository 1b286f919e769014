package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type DocumentEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Document       string          `gorm:"type:text"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	Url            string          `gorm:"type:text;index"`
	Title          string          `gorm:"type:text"`
	Provider       string          `gorm:"type:varchar(16)"`
	ChunkIndex     int             `gorm:"default:0"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (DocumentEmbedding) TableName() string {
	return "document_embeddings"
}

// FetchQuota is the durable daily counter for the reader-proxy fallback.
// One row per calendar day; increments must be atomic (conditional UPDATE).
type FetchQuota struct {
	Day       string    `gorm:"type:varchar(10);primaryKey"`
	Count     int       `gorm:"column:request_count;not null;default:0"`
	Tokens    int       `gorm:"column:token_estimate;not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FetchQuota) TableName() string {
	return "fetch_quotas"
}
