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

type ExaProvider struct {
	ApiKey  string
	BaseURL string
	Client  *http.Client
}

func NewExaProvider(apiKey string) *ExaProvider {
	return &ExaProvider{
		ApiKey:  apiKey,
		BaseURL: "https://api.exa.ai",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *ExaProvider) Name() string {
	return "exa"
}

type exaRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
	Type       string `json:"type"`
}

type exaResponse struct {
	Results []struct {
		Title string `json:"title"`
		Url   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

func (p *ExaProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	payload, err := json.Marshal(exaRequest{Query: query, NumResults: count, Type: "auto"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/search", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.ApiKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exa request failed: %w", err)
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
		return nil, fmt.Errorf("exa error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed exaResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal exa response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{
			Title:       r.Title,
			Url:         r.Url,
			Description: r.Text,
			Provider:    p.Name(),
		})
	}
	return results, nil
}
