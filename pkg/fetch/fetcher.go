package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-research-be/internal/apperr"
)

// Strategy tags recorded on fetched pages.
const (
	StrategyRaw         = "raw"
	StrategyReadability = "readability"
	StrategyWebFetch    = "webfetch"
	StrategyReader      = "reader"
)

const (
	maxContentChars  = 500_000
	minArticleLength = 200
)

// Page is the outcome of a successful fetch.
type Page struct {
	Url      string
	Title    string
	Content  string
	Strategy string
}

// QuotaGate guards the metered reader-proxy fallback.
type QuotaGate interface {
	Consume(ctx context.Context, requests, tokens int) (bool, error)
}

type Fetcher struct {
	client        *http.Client
	quota         QuotaGate
	readerEnabled bool
	readerKey     string
	readerBase    string
	retryDelay    time.Duration
}

func NewFetcher(timeout time.Duration, quota QuotaGate, readerEnabled bool, readerKey string) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		quota:         quota,
		readerEnabled: readerEnabled,
		readerKey:     readerKey,
		readerBase:    readerBaseURL,
		retryDelay:    2 * time.Second,
	}
}

// Fetch walks the strategy chain until one yields usable content. GitHub blob
// pages skip straight to the raw mirror; everything else goes readability,
// then crude strip, then the metered reader proxy.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if rawUrl, ok := rewriteGitHubBlob(url); ok {
		page, err := f.fetchRaw(ctx, url, rawUrl)
		if err == nil {
			return page, nil
		}
		return nil, err
	}

	body, fetchErr := f.fetchBody(ctx, url)
	if fetchErr == nil {
		if page, err := f.extractReadable(url, body); err == nil {
			return page, nil
		}
		if page := f.crudeStrip(url, body); page != nil {
			return page, nil
		}
	}

	if f.readerEnabled && f.quota != nil {
		page, err := f.fetchViaReader(ctx, url)
		if err == nil {
			return page, nil
		}
		return nil, err
	}

	if fetchErr != nil {
		return nil, apperr.Provider(fmt.Sprintf("fetch %s failed", url), fetchErr)
	}
	return nil, apperr.Provider(fmt.Sprintf("no usable content extracted from %s", url), nil)
}

// fetchBody gets the page with one retry after a short delay.
func (f *Fetcher) fetchBody(ctx context.Context, url string) (string, error) {
	body, err := f.doGet(ctx, url)
	if err == nil {
		return body, nil
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(f.retryDelay):
	}

	return f.doGet(ctx, url)
}

func (f *Fetcher) doGet(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-agent/1.0)")
	// The reader proxy authenticates by bearer key; without one it serves the
	// anonymous tier with lower rate limits.
	if f.readerKey != "" && strings.HasPrefix(url, f.readerBase) {
		req.Header.Set("Authorization", "Bearer "+f.readerKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxContentChars))
	if err != nil {
		return "", err
	}
	return string(bodyBytes), nil
}

// rewriteGitHubBlob maps a github.com blob page to its raw mirror so we get
// file content instead of the HTML viewer.
func rewriteGitHubBlob(url string) (string, bool) {
	const marker = "github.com/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", false
	}
	rest := url[idx+len(marker):]
	parts := strings.SplitN(rest, "/", 5)
	// owner/repo/blob/branch/path
	if len(parts) < 5 || parts[2] != "blob" {
		return "", false
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		parts[0], parts[1], parts[3], parts[4]), true
}

func (f *Fetcher) fetchRaw(ctx context.Context, originalUrl, rawUrl string) (*Page, error) {
	body, err := f.fetchBody(ctx, rawUrl)
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("fetch raw %s failed", rawUrl), err)
	}
	return &Page{
		Url:      originalUrl,
		Content:  body,
		Strategy: StrategyRaw,
	}, nil
}
