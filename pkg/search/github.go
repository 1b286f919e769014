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

// GitHubProvider searches repositories; useful for code-centric queries.
// Works unauthenticated at a lower rate limit, Token is optional.
type GitHubProvider struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

func NewGitHubProvider(token string) *GitHubProvider {
	return &GitHubProvider{
		Token:   token,
		BaseURL: "https://api.github.com",
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

type githubResponse struct {
	Items []struct {
		FullName    string `json:"full_name"`
		HtmlUrl     string `json:"html_url"`
		Description string `json:"description"`
	} `json:"items"`
}

func (p *GitHubProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&per_page=%d", p.BaseURL, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// GitHub signals rate limiting with 403 as well as 429.
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return nil, rateLimitError(p.Name())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed githubResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal github response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, r := range parsed.Items {
		results = append(results, Result{
			Title:       r.FullName,
			Url:         r.HtmlUrl,
			Description: r.Description,
			Provider:    p.Name(),
		})
	}
	return results, nil
}
