package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type SerperProvider struct {
	ApiKey  string
	BaseURL string
	Client  *http.Client
}

func NewSerperProvider(apiKey string) *SerperProvider {
	return &SerperProvider{
		ApiKey:  apiKey,
		BaseURL: "https://google.serper.dev",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *SerperProvider) Name() string {
	return "serper"
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (p *SerperProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	payload, err := json.Marshal(serperRequest{Q: query, Num: count})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.ApiKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
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
		return nil, fmt.Errorf("serper error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed serperResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal serper response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		results = append(results, Result{
			Title:       r.Title,
			Url:         r.Link,
			Description: r.Snippet,
			Provider:    p.Name(),
		})
	}
	return results, nil
}
