package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ArxivProvider queries the public arXiv Atom feed. No API key needed.
type ArxivProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewArxivProvider() *ArxivProvider {
	return &ArxivProvider{
		BaseURL: "http://export.arxiv.org/api",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *ArxivProvider) Name() string {
	return "arxiv"
}

type arxivFeed struct {
	Entries []struct {
		Title   string `xml:"title"`
		Id      string `xml:"id"`
		Summary string `xml:"summary"`
	} `xml:"entry"`
}

func (p *ArxivProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/query?search_query=all:%s&max_results=%d",
		p.BaseURL, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimitError(p.Name())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv error: status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(bodyBytes, &feed); err != nil {
		return nil, fmt.Errorf("unmarshal arxiv feed: %w", err)
	}

	results := make([]Result, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		results = append(results, Result{
			Title:       strings.TrimSpace(e.Title),
			Url:         strings.TrimSpace(e.Id),
			Description: strings.TrimSpace(e.Summary),
			Provider:    p.Name(),
		})
	}
	return results, nil
}
