package scrape

import "time"

// MaxSummaryChars bounds every produced summary, regardless of how
// verbose the source is.
const MaxSummaryChars = 300

// Item is the normalized record shape shared by both fetch strategies.
// URL is the deduplication key downstream.
type Item struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
	Source      string
	SourceID    string
	SourceLogo  string
	ImageURL    string
	Language    string
}
