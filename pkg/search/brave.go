package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type BraveProvider struct {
	ApiKey  string
	BaseURL string
	Client  *http.Client
}

func NewBraveProvider(apiKey string) *BraveProvider {
	return &BraveProvider{
		ApiKey:  apiKey,
		BaseURL: "https://api.search.brave.com/res/v1",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *BraveProvider) Name() string {
	return "brave"
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Url         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (p *BraveProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/web/search?q=%s&count=%d", p.BaseURL, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.ApiKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave request failed: %w", err)
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
		return nil, fmt.Errorf("brave error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed braveResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal brave response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, Result{
			Title:       r.Title,
			Url:         r.Url,
			Description: r.Description,
			Provider:    p.Name(),
		})
	}
	return results, nil
}
