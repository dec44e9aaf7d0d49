package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubFetcher struct {
	itemsBySource map[string][]Item
	errBySource   map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, source Source, limit int) ([]Item, error) {
	if err := s.errBySource[source.ID]; err != nil {
		return nil, err
	}
	items := s.itemsBySource[source.ID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func itemAt(sourceID string, n int, published time.Time) Item {
	return Item{
		Title:       fmt.Sprintf("%s noticia %d", sourceID, n),
		URL:         fmt.Sprintf("https://%s.example.cl/%d", sourceID, n),
		Summary:     "resumen",
		PublishedAt: published,
		SourceID:    sourceID,
	}
}

func newStubAggregator(sources []Source, stub *stubFetcher, keywords []string) *Aggregator {
	return NewAggregator(sources, zerolog.Nop(), Options{
		FeedFetcher:       stub,
		MarkupFetcher:     stub,
		PoliticalKeywords: keywords,
	})
}

func TestScrapeAllSurvivesPartialFailure(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	sources := []Source{
		{ID: "sano", Name: "Sano", Kind: KindFeed, Active: true},
		{ID: "caido", Name: "Caído", Kind: KindMarkup, Active: true},
	}
	stub := &stubFetcher{
		itemsBySource: map[string][]Item{
			"sano": {itemAt("sano", 1, base), itemAt("sano", 2, base.Add(-time.Hour))},
		},
		errBySource: map[string]error{
			"caido": errors.New("connection refused"),
		},
	}

	items := newStubAggregator(sources, stub, nil).ScrapeAll(context.Background(), 10, nil)
	if len(items) != 2 {
		t.Fatalf("expected surviving source items, got %d", len(items))
	}
	for _, item := range items {
		if item.SourceID != "sano" {
			t.Fatalf("unexpected item from failed source: %+v", item)
		}
	}
}

func TestScrapeAllSortsAndTruncates(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	sources := []Source{
		{ID: "a", Kind: KindFeed, Active: true},
		{ID: "b", Kind: KindFeed, Active: true},
	}

	itemsA := make([]Item, 0, 10)
	itemsB := make([]Item, 0, 10)
	for i := 0; i < 10; i++ {
		itemsA = append(itemsA, itemAt("a", i, base.Add(-time.Duration(2*i)*time.Minute)))
		itemsB = append(itemsB, itemAt("b", i, base.Add(-time.Duration(2*i+1)*time.Minute)))
	}
	stub := &stubFetcher{itemsBySource: map[string][]Item{"a": itemsA, "b": itemsB}}

	items := newStubAggregator(sources, stub, nil).ScrapeAll(context.Background(), 5, nil)
	if len(items) != 5 {
		t.Fatalf("expected exactly 5 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].PublishedAt.After(items[i-1].PublishedAt) {
			t.Fatalf("items not sorted by published desc at %d", i)
		}
	}
	// The 5 most recent alternate between the two sources.
	if !items[0].PublishedAt.Equal(base) {
		t.Fatalf("expected most recent item first, got %s", items[0].PublishedAt)
	}
}

func TestScrapeAllSkipsInactiveSources(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	sources := []Source{
		{ID: "on", Kind: KindFeed, Active: true},
		{ID: "off", Kind: KindFeed, Active: false},
	}
	stub := &stubFetcher{itemsBySource: map[string][]Item{
		"on":  {itemAt("on", 1, base)},
		"off": {itemAt("off", 1, base)},
	}}

	items := newStubAggregator(sources, stub, nil).ScrapeAll(context.Background(), 10, nil)
	if len(items) != 1 || items[0].SourceID != "on" {
		t.Fatalf("expected only active source items, got %+v", items)
	}
}

func TestScrapeAllKeywordFilter(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	sources := []Source{{ID: "s", Kind: KindFeed, Active: true}}
	stub := &stubFetcher{itemsBySource: map[string][]Item{
		"s": {
			{Title: "Resultados de las ELECCIONES", URL: "u1", Summary: "conteo", PublishedAt: base, SourceID: "s"},
			{Title: "Receta de empanadas", URL: "u2", Summary: "cocina", PublishedAt: base, SourceID: "s"},
			{Title: "Deportes", URL: "u3", Summary: "el senado aprobó fondos", PublishedAt: base, SourceID: "s"},
		},
	}}

	items := newStubAggregator(sources, stub, nil).ScrapeAll(context.Background(), 10, []string{"elecciones", "senado"})
	if len(items) != 2 {
		t.Fatalf("expected 2 matching items, got %d", len(items))
	}
	for _, item := range items {
		if item.URL == "u2" {
			t.Fatalf("non-matching item should be filtered: %+v", item)
		}
	}
}

func TestPoliticalNewsAppliesPreset(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 11, 12, 12, 0, 0, 0, time.UTC)
	sources := []Source{{ID: "s", Kind: KindFeed, Active: true}}
	stub := &stubFetcher{itemsBySource: map[string][]Item{
		"s": {
			{Title: "Campaña presidencial", URL: "u1", Summary: "", PublishedAt: base, SourceID: "s"},
			{Title: "Farándula", URL: "u2", Summary: "", PublishedAt: base, SourceID: "s"},
		},
	}}

	agg := newStubAggregator(sources, stub, []string{"presidencial"})
	items := agg.PoliticalNews(context.Background(), 10)
	if len(items) != 1 || items[0].URL != "u1" {
		t.Fatalf("expected preset keyword filter to apply, got %+v", items)
	}
}

func TestFilterByKeywords(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Title: "Gobierno presenta presupuesto", Summary: ""},
		{Title: "Clima", Summary: "lluvia en el sur"},
	}

	if got := filterByKeywords(items, nil); len(got) != 2 {
		t.Fatalf("empty keyword list must keep everything, got %d", len(got))
	}
	if got := filterByKeywords(items, []string{"GOBIERNO"}); len(got) != 1 {
		t.Fatalf("keyword match must be case-insensitive, got %d", len(got))
	}
	if got := filterByKeywords(items, []string{"congreso"}); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}
