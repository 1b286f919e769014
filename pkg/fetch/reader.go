package fetch

import (
	"context"
	"fmt"
	"strings"

	"ai-research-be/internal/apperr"
)

const readerBaseURL = "https://r.jina.ai/"

// estimateTokens approximates token usage from character count.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// fetchViaReader uses the hosted reader proxy, which renders javascript-heavy
// pages server side. Requests and returned tokens count against a daily quota.
func (f *Fetcher) fetchViaReader(ctx context.Context, url string) (*Page, error) {
	ok, err := f.quota.Consume(ctx, 1, 0)
	if err != nil {
		return nil, apperr.Upstream("reader quota check failed", err)
	}
	if !ok {
		return nil, apperr.Quota("reader daily quota exhausted")
	}

	body, err := f.fetchBody(ctx, f.readerBase+url)
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("reader fetch %s failed", url), err)
	}

	content := strings.TrimSpace(body)
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	// Book the token cost after the fact; a false return only affects the
	// next caller.
	if _, err := f.quota.Consume(ctx, 0, estimateTokens(content)); err != nil {
		return nil, apperr.Upstream("reader quota update failed", err)
	}

	if len(content) < minArticleLength {
		return nil, apperr.Provider(fmt.Sprintf("reader returned too little content for %s", url), nil)
	}

	return &Page{
		Url:      url,
		Content:  content,
		Strategy: StrategyReader,
	}, nil
}
