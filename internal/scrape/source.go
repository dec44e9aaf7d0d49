package scrape

// Kind selects the fetch strategy for a source.
type Kind string

const (
	// KindFeed sources expose a structured RSS/Atom feed.
	KindFeed Kind = "feed"
	// KindMarkup sources are scraped heuristically from their HTML.
	KindMarkup Kind = "markup"
)

// Source describes one configured news publisher. Rows are owned by the
// admin; the aggregator only reads active ones.
type Source struct {
	ID     string
	Name   string
	URL    string
	Kind   Kind
	Logo   string
	Active bool
}

// DefaultSources returns the built-in Chilean political news sources
// used by the seed command. The admin can edit or replace them later.
func DefaultSources() []Source {
	return []Source{
		{
			ID:     "emol",
			Name:   "Emol",
			URL:    "https://www.emol.com/noticias/Nacional/",
			Kind:   KindMarkup,
			Logo:   "/images/emol-logo.png",
			Active: true,
		},
		{
			ID:     "latercera",
			Name:   "La Tercera",
			URL:    "https://www.latercera.com/politica/",
			Kind:   KindMarkup,
			Logo:   "/images/latercera-logo.png",
			Active: true,
		},
		{
			ID:     "biobio",
			Name:   "BioBío Chile",
			URL:    "https://www.biobiochile.cl/lista/feed/rss2/politica",
			Kind:   KindFeed,
			Logo:   "/images/biobio-logo.png",
			Active: true,
		},
		{
			ID:     "t13",
			Name:   "T13",
			URL:    "https://www.t13.cl/rss/politica.xml",
			Kind:   KindFeed,
			Logo:   "/images/t13-logo.png",
			Active: true,
		},
	}
}
