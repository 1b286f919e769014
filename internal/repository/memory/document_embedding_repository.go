package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"

	"github.com/google/uuid"
)

type documentEmbeddingRepository struct {
	store *Store
}

func NewDocumentEmbeddingRepository(store *Store) contract.DocumentEmbeddingRepository {
	return &documentEmbeddingRepository{store: store}
}

func (r *documentEmbeddingRepository) CreateBulk(ctx context.Context, embeddings []*entity.DocumentEmbedding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range embeddings {
		if e.Id == uuid.Nil {
			e.Id = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		c := *e
		c.EmbeddingValue = append([]float32(nil), e.EmbeddingValue...)
		r.store.embeddings[e.Id] = &c
	}
	return nil
}

func (r *documentEmbeddingRepository) DeleteByUrl(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, e := range r.store.embeddings {
		if e.Url == url {
			delete(r.store.embeddings, id)
		}
	}
	return nil
}

// SearchSimilarWithScore mirrors the cosine-distance query: dot product over
// normalized vectors, threshold filter, similarity-descending order.
func (r *documentEmbeddingRepository) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredDocumentEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var scored []*contract.ScoredDocumentEmbedding
	for _, e := range r.store.embeddings {
		sim := cosineSimilarity(embedding, e.EmbeddingValue)
		if sim < threshold {
			continue
		}
		c := *e
		c.EmbeddingValue = append([]float32(nil), e.EmbeddingValue...)
		scored = append(scored, &contract.ScoredDocumentEmbedding{
			Embedding:  &c,
			Similarity: sim,
		})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *documentEmbeddingRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.embeddings)), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type fetchQuotaRepository struct {
	store *Store
}

func NewFetchQuotaRepository(store *Store) contract.FetchQuotaRepository {
	return &fetchQuotaRepository{store: store}
}

func (r *fetchQuotaRepository) Get(ctx context.Context, day string) (*entity.FetchQuota, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.quotas[day]
	if !ok {
		return nil, nil
	}
	c := *q
	return &c, nil
}

func (r *fetchQuotaRepository) Consume(ctx context.Context, day string, requests, tokens, maxCount, maxTokens int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.quotas[day]
	if !ok {
		q = &entity.FetchQuota{Day: day}
		r.store.quotas[day] = q
	}
	if q.Count+requests > maxCount || q.Tokens+tokens > maxTokens {
		return false, nil
	}
	q.Count += requests
	q.Tokens += tokens
	q.UpdatedAt = time.Now()
	return true, nil
}
