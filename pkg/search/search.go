package search

import (
	"context"
	"errors"
	"fmt"
)

// Result is the canonical record every provider normalizes into at its
// boundary. Raw provider payloads never leave this package.
type Result struct {
	Title       string
	Url         string
	Description string
	Provider    string
}

type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// ErrRateLimited marks a provider 429. The aggregator puts the provider on
// cooldown instead of counting a plain failure.
var ErrRateLimited = errors.New("provider rate limited")

func rateLimitError(provider string) error {
	return fmt.Errorf("%s: %w", provider, ErrRateLimited)
}
