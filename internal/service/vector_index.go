package service

import (
	"context"
	"time"

	"ai-research-be/internal/constant"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/fetch"
	"ai-research-be/pkg/research/retrieval"
	"ai-research-be/pkg/utils"

	"github.com/google/uuid"
)

// vectorIndex adapts the embedding repository to the merger's VectorIndex.
type vectorIndex struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	minSimilarity     float64
}

func NewVectorIndex(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	minSimilarity float64,
) retrieval.VectorIndex {
	return &vectorIndex{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		minSimilarity:     minSimilarity,
	}
}

func (v *vectorIndex) Search(ctx context.Context, query string, topK int) ([]retrieval.Hit, error) {
	res, err := v.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	uow := v.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentEmbeddingRepository().SearchSimilarWithScore(
		ctx, res.Embedding.Values, topK, v.minSimilarity)
	if err != nil {
		return nil, err
	}

	hits := make([]retrieval.Hit, 0, len(scored))
	for _, s := range scored {
		score := s.Similarity
		hits = append(hits, retrieval.Hit{
			Title:    s.Embedding.Title,
			Url:      s.Embedding.Url,
			Content:  s.Embedding.Document,
			Provider: constant.ProviderVector,
			Score:    &score,
		})
	}
	return hits, nil
}

// Upsert re-indexes a fetched page: old chunks for the URL are dropped, the
// new content is chunked, embedded and stored.
func (v *vectorIndex) Upsert(ctx context.Context, page *fetch.Page, provider string) error {
	// ChunkSize 1500 chars (~375 tokens), overlap 200.
	chunks := utils.SplitText(page.Content, 1500, 200)

	var newEmbeddings []*entity.DocumentEmbedding
	for i, chunk := range chunks {
		res, err := v.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return err
		}
		newEmbeddings = append(newEmbeddings, &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			Url:            page.Url,
			Title:          page.Title,
			Provider:       provider,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	uow := v.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByUrl(ctx, page.Url); err != nil {
		return err
	}
	if len(newEmbeddings) > 0 {
		if err := uow.DocumentEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// quotaGate adapts the persistent daily quota to the fetcher's QuotaGate.
type quotaGate struct {
	uowFactory unitofwork.RepositoryFactory
	maxCount   int
	maxTokens  int
}

func NewQuotaGate(uowFactory unitofwork.RepositoryFactory, maxCount, maxTokens int) fetch.QuotaGate {
	return &quotaGate{
		uowFactory: uowFactory,
		maxCount:   maxCount,
		maxTokens:  maxTokens,
	}
}

func (q *quotaGate) Consume(ctx context.Context, requests, tokens int) (bool, error) {
	day := time.Now().UTC().Format("2006-01-02")
	uow := q.uowFactory.NewUnitOfWork(ctx)
	return uow.FetchQuotaRepository().Consume(ctx, day, requests, tokens, q.maxCount, q.maxTokens)
}
