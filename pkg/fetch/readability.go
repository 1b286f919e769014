package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Phrases that mark an extraction as a bot wall or error page rather than
// real article content.
var unavailablePhrases = []string{
	"enable javascript",
	"access denied",
	"404 not found",
	"page not found",
	"captcha",
	"are you a robot",
}

func (f *Fetcher) extractReadable(pageUrl, html string) (*Page, error) {
	parsedUrl, err := url.Parse(pageUrl)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedUrl)
	if err != nil {
		return nil, fmt.Errorf("readability parse: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)
	if len(content) < minArticleLength {
		return nil, fmt.Errorf("readability output too short (%d chars)", len(content))
	}

	lowered := strings.ToLower(content)
	for _, phrase := range unavailablePhrases {
		if strings.Contains(lowered, phrase) && len(content) < 2*minArticleLength {
			return nil, fmt.Errorf("readability output looks like an unavailable page")
		}
	}

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	return &Page{
		Url:      pageUrl,
		Title:    article.Title,
		Content:  content,
		Strategy: StrategyReadability,
	}, nil
}
