package service

import (
	"context"
	"strings"
	"testing"

	"ai-research-be/internal/repository/memory"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vectors map[string][]float32
	deflt   []float32
}

func (f *fixedEmbedder) Generate(text, taskType string) (*embedding.EmbeddingResponse, error) {
	values := f.deflt
	for key, v := range f.vectors {
		if strings.Contains(text, key) {
			values = v
			break
		}
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: values},
	}, nil
}

func TestVectorIndexRoundTrip(t *testing.T) {
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)

	embedder := &fixedEmbedder{
		vectors: map[string][]float32{
			"goroutine": {1, 0, 0},
			"channel":   {0, 1, 0},
		},
		deflt: []float32{0, 0, 1},
	}
	index := NewVectorIndex(factory, embedder, 0.3)

	ctx := context.Background()
	require.NoError(t, index.Upsert(ctx, &fetch.Page{
		Url:     "https://example.com/goroutines",
		Title:   "Goroutines",
		Content: "all about the goroutine scheduler",
	}, "brave"))
	require.NoError(t, index.Upsert(ctx, &fetch.Page{
		Url:     "https://example.com/channels",
		Title:   "Channels",
		Content: "all about channel semantics",
	}, "brave"))

	hits, err := index.Search(ctx, "how does the goroutine scheduler work", 5)
	require.NoError(t, err)

	require.Len(t, hits, 1, "orthogonal chunks fall below the similarity floor")
	assert.Equal(t, "https://example.com/goroutines", hits[0].Url)
	require.NotNil(t, hits[0].Score)
	assert.InDelta(t, 1.0, *hits[0].Score, 0.001)
}

func TestVectorIndexUpsertReplacesUrl(t *testing.T) {
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	embedder := &fixedEmbedder{deflt: []float32{1, 0, 0}}
	index := NewVectorIndex(factory, embedder, 0.0)

	ctx := context.Background()
	page := &fetch.Page{Url: "https://example.com/page", Content: "first version"}
	require.NoError(t, index.Upsert(ctx, page, "brave"))
	page.Content = "second version"
	require.NoError(t, index.Upsert(ctx, page, "brave"))

	count, err := factory.NewUnitOfWork(ctx).DocumentEmbeddingRepository().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "re-indexing a URL must not duplicate chunks")
}

func TestQuotaGateEnforcesDailyLimits(t *testing.T) {
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	gate := NewQuotaGate(factory, 2, 100)

	ctx := context.Background()

	ok, err := gate.Consume(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Consume(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Consume(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok, "third request exceeds the daily request cap")

	// Token bookkeeping alone still passes while under the token cap.
	ok, err = gate.Consume(ctx, 0, 50)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Consume(ctx, 0, 50)
	require.NoError(t, err)
	assert.False(t, ok, "token cap reached")
}
