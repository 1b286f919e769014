package retrieval

import (
	"context"

	"ai-research-be/internal/constant"
	"ai-research-be/pkg/fetch"
	"ai-research-be/pkg/search"
)

// Hit is a merged retrieval result regardless of origin. Score is set only
// for vector hits; Degraded marks snippet-only fallbacks.
type Hit struct {
	Title    string
	Url      string
	Content  string
	Provider string
	Score    *float64
	Degraded bool
	Strategy string
}

// VectorIndex is the slice of the embedding store the merger needs.
type VectorIndex interface {
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
	// Upsert replaces previously indexed chunks for the page URL.
	Upsert(ctx context.Context, page *fetch.Page, provider string) error
}

type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]search.Result, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Observer receives merge progress callbacks in deterministic order, one
// goroutine, so event logs are reproducible.
type Observer interface {
	OnWebSearch(provider string, resultCount int)
	OnWebSearchFailed(err error)
	OnHit(hit Hit)
}

type Config struct {
	TopK             int
	HighScoreThresh  float64
	MinHighScoreHits int
	WebSearchCount   int
	MaxWebFetch      int
}

// Merger combines the local vector index with live web retrieval.
type Merger struct {
	index    VectorIndex
	searcher Searcher
	fetcher  Fetcher
	cfg      Config
}

func NewMerger(index VectorIndex, searcher Searcher, fetcher Fetcher, cfg Config) *Merger {
	return &Merger{
		index:    index,
		searcher: searcher,
		fetcher:  fetcher,
		cfg:      cfg,
	}
}

// Retrieve runs the merge for one subtask query. When the index alone yields
// enough high-confidence hits, web retrieval is skipped entirely. Web search
// failure degrades to vector-only results; individual fetch failures degrade
// to snippet hits. Hits are reported through the observer as they are
// accepted.
func (m *Merger) Retrieve(ctx context.Context, query string, obs Observer) ([]Hit, error) {
	vectorHits, err := m.index.Search(ctx, query, m.cfg.TopK)
	if err != nil {
		return nil, err
	}

	var highScore []Hit
	for _, h := range vectorHits {
		if h.Score != nil && *h.Score >= m.cfg.HighScoreThresh {
			highScore = append(highScore, h)
		}
	}
	if len(highScore) >= m.cfg.MinHighScoreHits {
		for _, h := range highScore {
			obs.OnHit(h)
		}
		return highScore, nil
	}

	hits := make([]Hit, 0, len(vectorHits))
	seen := make(map[string]bool)
	for _, h := range vectorHits {
		if h.Url != "" {
			seen[h.Url] = true
		}
		hits = append(hits, h)
		obs.OnHit(h)
	}

	results, err := m.searcher.Search(ctx, query, m.cfg.WebSearchCount)
	if err != nil {
		obs.OnWebSearchFailed(err)
		return hits, nil
	}
	provider := ""
	if len(results) > 0 {
		provider = results[0].Provider
	}
	obs.OnWebSearch(provider, len(results))

	fetched := 0
	for _, res := range results {
		if fetched >= m.cfg.MaxWebFetch {
			break
		}
		if res.Url == "" || seen[res.Url] {
			continue
		}
		seen[res.Url] = true
		fetched++

		hit := m.fetchOne(ctx, res)
		hits = append(hits, hit)
		obs.OnHit(hit)
	}

	return hits, nil
}

// fetchOne fetches page content and indexes it; on failure the search snippet
// itself becomes a degraded hit so the source is never silently dropped.
func (m *Merger) fetchOne(ctx context.Context, res search.Result) Hit {
	page, err := m.fetcher.Fetch(ctx, res.Url)
	if err != nil {
		return Hit{
			Title:    res.Title,
			Url:      res.Url,
			Content:  res.Description,
			Provider: constant.ProviderSnippet,
			Degraded: true,
		}
	}

	title := page.Title
	if title == "" {
		title = res.Title
	}

	// Index errors do not fail the merge.
	_ = m.index.Upsert(ctx, &fetch.Page{
		Url:      page.Url,
		Title:    title,
		Content:  page.Content,
		Strategy: page.Strategy,
	}, res.Provider)

	return Hit{
		Title:    title,
		Url:      res.Url,
		Content:  page.Content,
		Provider: res.Provider,
		Strategy: page.Strategy,
	}
}
