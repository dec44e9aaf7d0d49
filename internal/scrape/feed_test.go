package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"horse.fit/civica/internal/globaltime"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
<title>Política</title>
<item>
  <title>Elecciones: candidatos cierran campaña</title>
  <link>https://noticias.example.cl/politica/cierre</link>
  <description><![CDATA[<p>Los comandos <b>afinan</b> sus actos finales.</p>]]></description>
  <media:content url="https://img.example.cl/cierre.jpg" medium="image"/>
  <pubDate>Tue, 12 Nov 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Gobierno anuncia paquete económico</title>
  <link>https://noticias.example.cl/economia/paquete</link>
  <description>` + strings.Repeat("resumen muy largo ", 30) + `</description>
  <enclosure url="https://img.example.cl/paquete.jpg" type="image/jpeg" length="1024"/>
  <pubDate>Tue, 12 Nov 2024 09:00:00 GMT</pubDate>
</item>
<item>
  <title>Congreso vota reforma</title>
  <link>https://noticias.example.cl/politica/reforma</link>
  <description><![CDATA[Debate en sala. <img src="https://img.example.cl/reforma.jpg">]]></description>
</item>
</channel>
</rss>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFeedFetcherNormalizesEntries(t *testing.T) {
	frozen := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(frozen)
	defer globaltime.ResetTime()

	server := serveFeed(t, testFeedXML)
	source := Source{ID: "testfeed", Name: "Test Feed", URL: server.URL, Kind: KindFeed, Logo: "/logo.png", Active: true}

	fetcher := newFeedFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	items, err := fetcher.Fetch(context.Background(), source, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Elecciones: candidatos cierran campaña" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.URL != "https://noticias.example.cl/politica/cierre" {
		t.Fatalf("unexpected url: %q", first.URL)
	}
	if strings.Contains(first.Summary, "<") {
		t.Fatalf("summary should be HTML-stripped: %q", first.Summary)
	}
	if first.Summary != "Los comandos afinan sus actos finales." {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.ImageURL != "https://img.example.cl/cierre.jpg" {
		t.Fatalf("expected media:content image, got %q", first.ImageURL)
	}
	if first.SourceID != "testfeed" || first.Source != "Test Feed" || first.SourceLogo != "/logo.png" {
		t.Fatalf("source fields not propagated: %+v", first)
	}

	second := items[1]
	if len([]rune(second.Summary)) > MaxSummaryChars {
		t.Fatalf("summary exceeds %d chars: %d", MaxSummaryChars, len([]rune(second.Summary)))
	}
	if second.ImageURL != "https://img.example.cl/paquete.jpg" {
		t.Fatalf("expected enclosure image, got %q", second.ImageURL)
	}

	third := items[2]
	if third.ImageURL != "https://img.example.cl/reforma.jpg" {
		t.Fatalf("expected img-tag image, got %q", third.ImageURL)
	}
	if !third.PublishedAt.Equal(frozen) {
		t.Fatalf("expected missing date to fall back to now, got %s", third.PublishedAt)
	}
}

func TestFeedFetcherHonorsLimit(t *testing.T) {
	t.Parallel()

	server := serveFeed(t, testFeedXML)
	source := Source{ID: "testfeed", Name: "Test Feed", URL: server.URL, Kind: KindFeed, Active: true}

	fetcher := newFeedFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	items, err := fetcher.Fetch(context.Background(), source, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit to cap items at 2, got %d", len(items))
	}
}

func TestFeedFetcherReportsParseFailure(t *testing.T) {
	t.Parallel()

	server := serveFeed(t, "this is not a feed")
	source := Source{ID: "broken", Name: "Broken", URL: server.URL, Kind: KindFeed, Active: true}

	fetcher := newFeedFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	if _, err := fetcher.Fetch(context.Background(), source, 5); err == nil {
		t.Fatalf("expected parse error for invalid feed")
	}
}
