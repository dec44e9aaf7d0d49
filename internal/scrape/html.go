package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML flattens an HTML fragment to its visible text with
// collapsed whitespace.
func stripHTML(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return collapseWhitespace(trimmed)
	}
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// truncateSummary clips to MaxSummaryChars runes.
func truncateSummary(raw string) string {
	runes := []rune(strings.TrimSpace(raw))
	if len(runes) <= MaxSummaryChars {
		return string(runes)
	}
	return string(runes[:MaxSummaryChars])
}

// resolveRef resolves an href against the source page URL so relative
// links become absolute. Already-absolute URLs pass through unchanged.
func resolveRef(base *url.URL, href string) string {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return ""
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
