package contract

import (
	"context"

	"ai-research-be/internal/entity"
)

// ScoredDocumentEmbedding pairs an embedding row with its cosine similarity
// against the query vector.
type ScoredDocumentEmbedding struct {
	Embedding  *entity.DocumentEmbedding
	Similarity float64
}

type DocumentEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error
	// DeleteByUrl removes prior chunks of the same page; upserts dedup by URL.
	DeleteByUrl(ctx context.Context, url string) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredDocumentEmbedding, error)
	Count(ctx context.Context) (int64, error)
}

type FetchQuotaRepository interface {
	Get(ctx context.Context, day string) (*entity.FetchQuota, error)
	// Consume atomically adds the given requests/tokens to the day's counters
	// when neither limit would be exceeded. Returns false without mutating
	// state when either limit would be crossed.
	Consume(ctx context.Context, day string, requests, tokens, maxCount, maxTokens int) (bool, error)
}
