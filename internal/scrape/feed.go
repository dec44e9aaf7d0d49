package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"horse.fit/civica/internal/globaltime"
)

// feedFetcher parses RSS/Atom sources with gofeed.
type feedFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func newFeedFetcher(client *http.Client, userAgent string, timeout time.Duration) *feedFetcher {
	return &feedFetcher{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (f *feedFetcher) Fetch(ctx context.Context, source Source, limit int) ([]Item, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := parser.ParseURLWithContext(source.URL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.URL, err)
	}

	items := make([]Item, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry == nil {
			continue
		}

		summary := entry.Description
		if strings.TrimSpace(summary) == "" {
			summary = entry.Content
		}

		items = append(items, Item{
			Title:       entry.Title,
			URL:         entry.Link,
			Summary:     truncateSummary(stripHTML(summary)),
			PublishedAt: entryPublishedAt(entry),
			Source:      source.Name,
			SourceID:    source.ID,
			SourceLogo:  source.Logo,
			ImageURL:    entryImageURL(entry),
		})
	}
	return items, nil
}

// entryPublishedAt falls back to the update timestamp and finally the
// current time; one unparseable date never fails the whole fetch.
func entryPublishedAt(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return globaltime.Now()
}

// entryImageURL tries, in order: a media:content attachment, an
// image-typed enclosure, then the first <img> embedded in the HTML
// summary. First match wins.
func entryImageURL(entry *gofeed.Item) string {
	if media, ok := entry.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if u := strings.TrimSpace(content.Attrs["url"]); u != "" {
				return u
			}
		}
	}
	if entry.Image != nil && strings.TrimSpace(entry.Image.URL) != "" {
		return strings.TrimSpace(entry.Image.URL)
	}

	for _, enclosure := range entry.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.Contains(strings.ToLower(enclosure.Type), "image") && strings.TrimSpace(enclosure.URL) != "" {
			return strings.TrimSpace(enclosure.URL)
		}
	}

	if strings.TrimSpace(entry.Description) != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(entry.Description))
		if err == nil {
			if src, ok := doc.Find("img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
				return strings.TrimSpace(src)
			}
		}
	}
	return ""
}
