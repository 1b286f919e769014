package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-research-be/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuota struct {
	allow    bool
	requests int
	tokens   int
}

func (q *stubQuota) Consume(ctx context.Context, requests, tokens int) (bool, error) {
	q.requests += requests
	q.tokens += tokens
	return q.allow, nil
}

func newTestFetcher(quota QuotaGate, readerEnabled bool) *Fetcher {
	f := NewFetcher(5*time.Second, quota, readerEnabled, "")
	f.retryDelay = time.Millisecond
	return f
}

func TestRewriteGitHubBlob(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		rewrite bool
	}{
		{
			name:    "blob page",
			url:     "https://github.com/owner/repo/blob/main/pkg/thing.go",
			want:    "https://raw.githubusercontent.com/owner/repo/main/pkg/thing.go",
			rewrite: true,
		},
		{
			name:    "nested path",
			url:     "https://github.com/o/r/blob/v1.2/deep/nested/file.md",
			want:    "https://raw.githubusercontent.com/o/r/v1.2/deep/nested/file.md",
			rewrite: true,
		},
		{
			name:    "repo root is not a blob",
			url:     "https://github.com/owner/repo",
			rewrite: false,
		},
		{
			name:    "tree page is not a blob",
			url:     "https://github.com/owner/repo/tree/main/pkg",
			rewrite: false,
		},
		{
			name:    "non-github url",
			url:     "https://example.com/blob/main/file",
			rewrite: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rewriteGitHubBlob(tt.url)
			assert.Equal(t, tt.rewrite, ok)
			if tt.rewrite {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

const articleHTML = `<!DOCTYPE html><html><head><title>Go Concurrency</title></head><body>
<article><h1>Go Concurrency</h1>
<p>Goroutines are lightweight threads managed by the Go runtime. They are started with the go keyword and multiplexed onto a small number of operating system threads, which makes having tens of thousands of them at once entirely practical for servers.</p>
<p>Channels provide a way for goroutines to communicate and synchronize. Unbuffered channels block the sender until a receiver is ready, which gives a simple rendezvous primitive that many concurrent designs are built on top of in practice.</p>
</article></body></html>`

func TestFetchExtractsReadableArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := newTestFetcher(nil, false)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, StrategyReadability, page.Strategy)
	assert.Equal(t, srv.URL, page.Url)
	assert.Contains(t, page.Content, "Goroutines are lightweight threads")
}

func TestFetchFallsBackToCrudeStrip(t *testing.T) {
	// No article structure, so readability rejects it, but plenty of text
	// survives tag stripping.
	raw := "<html><body><script>var x = 1;</script><div>" +
		strings.Repeat("plain text fragment without article markup ", 10) +
		"</div></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(raw))
	}))
	defer srv.Close()

	f := newTestFetcher(nil, false)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, []string{StrategyReadability, StrategyWebFetch}, page.Strategy)
	assert.NotContains(t, page.Content, "var x = 1", "script bodies never leak into content")
	assert.Contains(t, page.Content, "plain text fragment")
}

func TestFetchTooShortWithoutReader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>tiny</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(nil, false)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
}

func TestReaderQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>tiny</body></html>"))
	}))
	defer srv.Close()

	quota := &stubQuota{allow: false}
	f := newTestFetcher(quota, true)

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuota, apperr.KindOf(err))
	assert.Equal(t, 1, quota.requests, "the request slot is checked before calling the proxy")
}

func TestReaderSendsBearerKey(t *testing.T) {
	var gotAuth string
	reader := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(strings.Repeat("rendered page content from the proxy ", 10)))
	}))
	defer reader.Close()

	// The origin serves nothing usable, forcing the reader fallback.
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>tiny</body></html>"))
	}))
	defer origin.Close()

	quota := &stubQuota{allow: true}
	f := NewFetcher(5*time.Second, quota, true, "secret-key")
	f.retryDelay = time.Millisecond
	f.readerBase = reader.URL + "/"

	page, err := f.Fetch(context.Background(), origin.URL)
	require.NoError(t, err)
	assert.Equal(t, StrategyReader, page.Strategy)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, 1, quota.requests)
	assert.Greater(t, quota.tokens, 0, "returned tokens are booked against the quota")
}

func TestFetchRetriesOnce(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := newTestFetcher(nil, false)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, page.Content, "Goroutines")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 2, estimateTokens("abcde"))
}

func TestCrudeStripRejectsShortResidue(t *testing.T) {
	f := newTestFetcher(nil, false)
	assert.Nil(t, f.crudeStrip("u", "<html><body><p>short</p></body></html>"))
}
