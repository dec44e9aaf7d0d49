package scrape

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; CivicaNews/1.0)"
)

// Fetcher is one source-fetch strategy. Implementations return their
// items or an error; they never panic across this boundary.
type Fetcher interface {
	Fetch(ctx context.Context, source Source, limit int) ([]Item, error)
}

// Options tunes an Aggregator. Zero values pick sane defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// PoliticalKeywords is the preset applied by PoliticalNews.
	PoliticalKeywords []string
	// DetectLanguage optionally tags each surviving item; nil skips
	// tagging.
	DetectLanguage func(string) string
	HTTPClient     *http.Client
	// FeedFetcher/MarkupFetcher override the built-in strategies,
	// mainly for tests and per-site tuning.
	FeedFetcher   Fetcher
	MarkupFetcher Fetcher
}

// Aggregator orchestrates per-source fetches and produces one merged,
// keyword-filtered, recency-sorted item list. It holds no mutable
// state between invocations.
type Aggregator struct {
	sources           []Source
	logger            zerolog.Logger
	feed              Fetcher
	markup            Fetcher
	politicalKeywords []string
	detectLanguage    func(string) string
}

func NewAggregator(sources []Source, logger zerolog.Logger, opts Options) *Aggregator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	feed := opts.FeedFetcher
	if feed == nil {
		feed = newFeedFetcher(client, userAgent, timeout)
	}
	markup := opts.MarkupFetcher
	if markup == nil {
		markup = newMarkupFetcher(client, userAgent, timeout)
	}

	return &Aggregator{
		sources:           sources,
		logger:            logger,
		feed:              feed,
		markup:            markup,
		politicalKeywords: opts.PoliticalKeywords,
		detectLanguage:    opts.DetectLanguage,
	}
}

// Sources returns the configured source list, active or not.
func (a *Aggregator) Sources() []Source {
	return a.sources
}

// ScrapeAll fetches every active source, filters by keywords when any
// are given, and returns up to limit items sorted by published time
// descending. Sources are fetched concurrently into independent result
// slots; a failing source contributes nothing and never aborts its
// siblings.
func (a *Aggregator) ScrapeAll(ctx context.Context, limit int, keywords []string) []Item {
	if limit <= 0 {
		return nil
	}

	active := make([]Source, 0, len(a.sources))
	for _, source := range a.sources {
		if source.Active {
			active = append(active, source)
		}
	}

	results := make([][]Item, len(active))
	var wg sync.WaitGroup
	for i, source := range active {
		wg.Add(1)
		go func(slot int, source Source) {
			defer wg.Done()
			items, err := a.fetchSource(ctx, source, limit)
			if err != nil {
				a.logger.Warn().
					Err(err).
					Str("source", source.ID).
					Str("kind", string(source.Kind)).
					Msg("source fetch failed, skipping")
				return
			}
			a.logger.Debug().
				Str("source", source.ID).
				Int("items", len(items)).
				Msg("source fetch complete")
			results[slot] = items
		}(i, source)
	}
	wg.Wait()

	merged := make([]Item, 0, limit*len(active))
	for _, items := range results {
		merged = append(merged, filterByKeywords(items, keywords)...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if a.detectLanguage != nil {
		for i := range merged {
			merged[i].Language = a.detectLanguage(merged[i].Title + " " + merged[i].Summary)
		}
	}
	return merged
}

// PoliticalNews is ScrapeAll with the configured political keyword
// preset. The preset is configuration, not logic.
func (a *Aggregator) PoliticalNews(ctx context.Context, limit int) []Item {
	return a.ScrapeAll(ctx, limit, a.politicalKeywords)
}

func (a *Aggregator) fetchSource(ctx context.Context, source Source, limit int) ([]Item, error) {
	switch source.Kind {
	case KindFeed:
		return a.feed.Fetch(ctx, source, limit)
	default:
		return a.markup.Fetch(ctx, source, limit)
	}
}

// filterByKeywords keeps items whose title or summary contains at least
// one keyword, case-insensitively. An empty keyword list keeps
// everything.
func filterByKeywords(items []Item, keywords []string) []Item {
	if len(keywords) == 0 {
		return items
	}

	lowered := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if trimmed := strings.ToLower(strings.TrimSpace(keyword)); trimmed != "" {
			lowered = append(lowered, trimmed)
		}
	}
	if len(lowered) == 0 {
		return items
	}

	kept := make([]Item, 0, len(items))
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Summary)
		for _, keyword := range lowered {
			if strings.Contains(text, keyword) {
				kept = append(kept, item)
				break
			}
		}
	}
	return kept
}
