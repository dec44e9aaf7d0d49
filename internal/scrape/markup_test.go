package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"horse.fit/civica/internal/globaltime"
)

const testListingHTML = `<!DOCTYPE html>
<html><body>
<div class="noticia destacada">
  <h2 class="titulo"><a href="/politica/nota-1">Primera nota política</a></h2>
  <p class="bajada">Bajada de la primera nota</p>
  <img src="/img/nota-1.jpg">
</div>
<article class="story-card">
  <h3>Segunda nota sin bajada</h3>
  <a href="https://otro.example.cl/nota-2">leer más</a>
</article>
<div class="noticia">
  <p>contenedor sin título ni enlace</p>
</div>
<div class="sidebar-widget">
  <h2>Bloque que no es noticia</h2>
</div>
</body></html>`

func serveHTML(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMarkupFetcherExtractsArticles(t *testing.T) {
	frozen := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(frozen)
	defer globaltime.ResetTime()

	server := serveHTML(t, http.StatusOK, testListingHTML)
	source := Source{ID: "diario", Name: "El Diario", URL: server.URL + "/politica/", Kind: KindMarkup, Logo: "/d.png", Active: true}

	fetcher := newMarkupFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	items, err := fetcher.Fetch(context.Background(), source, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (container without title skipped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "Primera nota política" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.URL != server.URL+"/politica/nota-1" {
		t.Fatalf("relative link not resolved against origin: %q", first.URL)
	}
	if first.Summary != "Bajada de la primera nota" {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.ImageURL != server.URL+"/img/nota-1.jpg" {
		t.Fatalf("relative image not resolved: %q", first.ImageURL)
	}
	if !first.PublishedAt.Equal(frozen) {
		t.Fatalf("first estimated timestamp should be now, got %s", first.PublishedAt)
	}

	second := items[1]
	if second.Title != "Segunda nota sin bajada" {
		t.Fatalf("unexpected second title: %q", second.Title)
	}
	if second.URL != "https://otro.example.cl/nota-2" {
		t.Fatalf("absolute link should pass through: %q", second.URL)
	}
	if second.Summary != second.Title {
		t.Fatalf("summary should fall back to title: %q", second.Summary)
	}
	if !second.PublishedAt.Equal(frozen.Add(-time.Hour)) {
		t.Fatalf("estimated timestamps must decrease per extracted item, got %s", second.PublishedAt)
	}
	if !first.PublishedAt.After(second.PublishedAt) {
		t.Fatalf("estimated ordering not strictly decreasing")
	}
}

func TestMarkupFetcherHonorsLimit(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, http.StatusOK, testListingHTML)
	source := Source{ID: "diario", Name: "El Diario", URL: server.URL, Kind: KindMarkup, Active: true}

	fetcher := newMarkupFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	items, err := fetcher.Fetch(context.Background(), source, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestMarkupFetcherFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, http.StatusInternalServerError, "boom")
	source := Source{ID: "caido", Name: "Caído", URL: server.URL, Kind: KindMarkup, Active: true}

	fetcher := newMarkupFetcher(server.Client(), defaultUserAgent, 5*time.Second)
	if _, err := fetcher.Fetch(context.Background(), source, 5); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}
