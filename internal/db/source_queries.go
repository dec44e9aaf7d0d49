package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"horse.fit/civica/internal/scrape"
)

// NewsSourceRecord is the API-facing news source row.
type NewsSourceRecord struct {
	SourceID  int64     `json:"source_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Logo      *string   `json:"logo,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewsSourceInput carries client-supplied source fields.
type NewsSourceInput struct {
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	URL    string  `json:"url"`
	Kind   string  `json:"kind"`
	Logo   *string `json:"logo"`
	Active *bool   `json:"active"`
}

func (in NewsSourceInput) validate() error {
	if strings.TrimSpace(in.Slug) == "" {
		return fmt.Errorf("source slug is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("source name is required")
	}
	if strings.TrimSpace(in.URL) == "" {
		return fmt.Errorf("source url is required")
	}
	switch scrape.Kind(strings.TrimSpace(in.Kind)) {
	case scrape.KindFeed, scrape.KindMarkup:
		return nil
	default:
		return fmt.Errorf("source kind must be %q or %q", scrape.KindFeed, scrape.KindMarkup)
	}
}

// ScrapeSource converts a stored source into the shape the aggregator
// consumes.
func (r NewsSourceRecord) ScrapeSource() scrape.Source {
	logo := ""
	if r.Logo != nil {
		logo = *r.Logo
	}
	return scrape.Source{
		ID:     r.Slug,
		Name:   r.Name,
		URL:    r.URL,
		Kind:   scrape.Kind(r.Kind),
		Logo:   logo,
		Active: r.Active,
	}
}

// ListNewsSources returns configured sources, optionally only active
// ones.
func (p *Pool) ListNewsSources(ctx context.Context, activeOnly bool) ([]NewsSourceRecord, error) {
	const q = `
SELECT
	s.source_id,
	s.slug,
	s.name,
	s.url,
	s.kind,
	s.logo,
	s.active,
	s.created_at
FROM news_sources s
WHERE ($1 = FALSE OR s.active)
ORDER BY s.name ASC, s.source_id ASC
`

	rows, err := p.Query(ctx, q, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query news sources: %w", err)
	}
	defer rows.Close()

	items := make([]NewsSourceRecord, 0, 8)
	for rows.Next() {
		var row NewsSourceRecord
		if err := rows.Scan(
			&row.SourceID,
			&row.Slug,
			&row.Name,
			&row.URL,
			&row.Kind,
			&row.Logo,
			&row.Active,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan news source row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news source rows: %w", err)
	}

	return items, nil
}

// GetNewsSource returns one source or ErrNoRows.
func (p *Pool) GetNewsSource(ctx context.Context, sourceID int64) (NewsSourceRecord, error) {
	const q = `
SELECT
	s.source_id,
	s.slug,
	s.name,
	s.url,
	s.kind,
	s.logo,
	s.active,
	s.created_at
FROM news_sources s
WHERE s.source_id = $1
`

	var row NewsSourceRecord
	err := p.QueryRow(ctx, q, sourceID).Scan(
		&row.SourceID,
		&row.Slug,
		&row.Name,
		&row.URL,
		&row.Kind,
		&row.Logo,
		&row.Active,
		&row.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return NewsSourceRecord{}, ErrNoRows
		}
		return NewsSourceRecord{}, fmt.Errorf("query news source %d: %w", sourceID, err)
	}

	return row, nil
}

// CreateNewsSource inserts a source and returns the stored row.
func (p *Pool) CreateNewsSource(ctx context.Context, in NewsSourceInput) (NewsSourceRecord, error) {
	if err := in.validate(); err != nil {
		return NewsSourceRecord{}, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	const q = `
INSERT INTO news_sources (slug, name, url, kind, logo, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING source_id
`

	var sourceID int64
	err := p.QueryRow(ctx, q,
		strings.TrimSpace(in.Slug),
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.URL),
		strings.TrimSpace(in.Kind),
		in.Logo,
		active,
	).Scan(&sourceID)
	if err != nil {
		return NewsSourceRecord{}, fmt.Errorf("insert news source: %w", err)
	}

	return p.GetNewsSource(ctx, sourceID)
}

// UpdateNewsSource overwrites a source's fields, or returns ErrNoRows.
func (p *Pool) UpdateNewsSource(ctx context.Context, sourceID int64, in NewsSourceInput) (NewsSourceRecord, error) {
	if err := in.validate(); err != nil {
		return NewsSourceRecord{}, err
	}

	const q = `
UPDATE news_sources
SET slug = $2,
    name = $3,
    url = $4,
    kind = $5,
    logo = $6,
    active = COALESCE($7, active)
WHERE source_id = $1
`

	tag, err := p.Exec(ctx, q,
		sourceID,
		strings.TrimSpace(in.Slug),
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.URL),
		strings.TrimSpace(in.Kind),
		in.Logo,
		in.Active,
	)
	if err != nil {
		return NewsSourceRecord{}, fmt.Errorf("update news source %d: %w", sourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return NewsSourceRecord{}, ErrNoRows
	}

	return p.GetNewsSource(ctx, sourceID)
}

// DeleteNewsSource removes a source. Stored news items keep their
// source slug for display.
func (p *Pool) DeleteNewsSource(ctx context.Context, sourceID int64) error {
	tag, err := p.Exec(ctx, `DELETE FROM news_sources WHERE source_id = $1`, sourceID)
	if err != nil {
		return fmt.Errorf("delete news source %d: %w", sourceID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// UpsertNewsSource inserts or updates a source keyed by slug. Bulk
// import uses it so re-imports stay idempotent.
func (p *Pool) UpsertNewsSource(ctx context.Context, in NewsSourceInput) (NewsSourceRecord, bool, error) {
	if err := in.validate(); err != nil {
		return NewsSourceRecord{}, false, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	const q = `
INSERT INTO news_sources (slug, name, url, kind, logo, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (slug)
DO UPDATE SET name = EXCLUDED.name,
              url = EXCLUDED.url,
              kind = EXCLUDED.kind,
              logo = EXCLUDED.logo,
              active = EXCLUDED.active
RETURNING source_id, (xmax = 0) AS inserted
`

	var (
		sourceID int64
		inserted bool
	)
	err := p.QueryRow(ctx, q,
		strings.TrimSpace(in.Slug),
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.URL),
		strings.TrimSpace(in.Kind),
		in.Logo,
		active,
	).Scan(&sourceID, &inserted)
	if err != nil {
		return NewsSourceRecord{}, false, fmt.Errorf("upsert news source: %w", err)
	}

	record, err := p.GetNewsSource(ctx, sourceID)
	if err != nil {
		return NewsSourceRecord{}, false, err
	}
	return record, inserted, nil
}
