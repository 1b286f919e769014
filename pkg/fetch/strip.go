package fetch

import (
	"regexp"
	"strings"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	linesRe  = regexp.MustCompile(`\n{3,}`)
)

// crudeStrip is the last unmetered resort: drop scripts, styles and tags and
// keep whatever text remains. Returns nil when the residue is too short to be
// useful.
func (f *Fetcher) crudeStrip(pageUrl, html string) *Page {
	text := scriptRe.ReplaceAllString(html, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = spaceRe.ReplaceAllString(text, " ")
	text = linesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if len(text) < minArticleLength {
		return nil
	}
	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}

	return &Page{
		Url:      pageUrl,
		Content:  text,
		Strategy: StrategyWebFetch,
	}
}
