package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"horse.fit/civica/internal/globaltime"
)

// Class-name vocabularies for the generic article heuristic. Each
// real-world site eventually wants its own tuned strategy; this is the
// best-effort default and it is expected to miss exotic layouts.
var (
	containerClassRE = regexp.MustCompile(`(?i)(noticia|articulo|card|item|story)`)
	titleClassRE     = regexp.MustCompile(`(?i)(titulo|title|headline)`)
	summaryClassRE   = regexp.MustCompile(`(?i)(resumen|summary|excerpt|bajada)`)
)

// markupFetcher extracts article items from unstructured HTML.
type markupFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func newMarkupFetcher(client *http.Client, userAgent string, timeout time.Duration) *markupFetcher {
	return &markupFetcher{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (f *markupFetcher) Fetch(ctx context.Context, source Source, limit int) ([]Item, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", source.URL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", source.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", source.URL, err)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source url %s: %w", source.URL, err)
	}

	containers := doc.Find("article, div").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		return containerClassRE.MatchString(class)
	})

	items := make([]Item, 0, limit)
	containers.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 2*limit || len(items) >= limit {
			return false
		}
		// Missing title or link means this container was not an
		// article after all; skip, never fail.
		item, ok := f.extractItem(sel, base, source, len(items))
		if ok {
			items = append(items, item)
		}
		return true
	})

	return items, nil
}

func (f *markupFetcher) extractItem(sel *goquery.Selection, base *url.URL, source Source, extracted int) (Item, bool) {
	titleSel := sel.Find("h1, h2, h3, h4, a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return titleClassRE.MatchString(class)
	}).First()
	if titleSel.Length() == 0 {
		titleSel = sel.Find("h1, h2, h3").First()
	}
	if titleSel.Length() == 0 {
		return Item{}, false
	}

	title := collapseWhitespace(titleSel.Text())
	if title == "" {
		return Item{}, false
	}

	linkSel := titleSel
	if goquery.NodeName(linkSel) != "a" {
		linkSel = titleSel.Find("a").First()
	}
	href, _ := linkSel.Attr("href")
	if strings.TrimSpace(href) == "" {
		href, _ = sel.Find("a").First().Attr("href")
	}
	link := resolveRef(base, href)
	if link == "" {
		return Item{}, false
	}

	summary := title
	summarySel := sel.Find("p, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return summaryClassRE.MatchString(class)
	}).First()
	if summarySel.Length() > 0 {
		if text := collapseWhitespace(summarySel.Text()); text != "" {
			summary = text
		}
	}

	imageURL := ""
	if imgSel := sel.Find("img").First(); imgSel.Length() > 0 {
		src, _ := imgSel.Attr("src")
		if strings.TrimSpace(src) == "" {
			src, _ = imgSel.Attr("data-src")
		}
		imageURL = resolveRef(base, src)
	}

	// Listing pages carry no publish timestamp. Estimate one that
	// decreases with extraction order so the merged sort stays stable;
	// it is an approximation, not a measured fact.
	published := globaltime.Now().Add(-time.Duration(extracted) * time.Hour)

	return Item{
		Title:       title,
		URL:         link,
		Summary:     truncateSummary(summary),
		PublishedAt: published,
		Source:      source.Name,
		SourceID:    source.ID,
		SourceLogo:  source.Logo,
		ImageURL:    imageURL,
	}, true
}
