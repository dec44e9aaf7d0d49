package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"horse.fit/civica/internal/scrape"
)

// NewsItemRecord is the API-facing news row.
type NewsItemRecord struct {
	NewsItemID  int64      `json:"news_item_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     *string    `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SourceName  *string    `json:"source_name,omitempty"`
	SourceSlug  *string    `json:"source_slug,omitempty"`
	SourceLogo  *string    `json:"source_logo,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	Language    *string    `json:"language,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewsListOptions filters news listings.
type NewsListOptions struct {
	SourceSlug      string
	IncludeInactive bool
	Limit           int
}

// ListNewsItems returns stored news, most recent first.
func (p *Pool) ListNewsItems(ctx context.Context, opts NewsListOptions) ([]NewsItemRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	const q = `
SELECT
	n.news_item_id,
	n.title,
	n.url,
	n.summary,
	n.published_at,
	n.source_name,
	n.source_slug,
	n.source_logo,
	n.image_url,
	n.language,
	n.active,
	n.created_at
FROM news_items n
WHERE ($1 OR n.active)
  AND ($2 = '' OR n.source_slug = $2)
ORDER BY n.published_at DESC NULLS LAST, n.news_item_id DESC
LIMIT $3
`

	rows, err := p.Query(ctx, q, opts.IncludeInactive, strings.TrimSpace(opts.SourceSlug), limit)
	if err != nil {
		return nil, fmt.Errorf("query news items: %w", err)
	}
	defer rows.Close()

	items := make([]NewsItemRecord, 0, limit)
	for rows.Next() {
		var row NewsItemRecord
		if err := rows.Scan(
			&row.NewsItemID,
			&row.Title,
			&row.URL,
			&row.Summary,
			&row.PublishedAt,
			&row.SourceName,
			&row.SourceSlug,
			&row.SourceLogo,
			&row.ImageURL,
			&row.Language,
			&row.Active,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan news row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news rows: %w", err)
	}

	return items, nil
}

// GetNewsItem returns one news row or ErrNoRows.
func (p *Pool) GetNewsItem(ctx context.Context, newsItemID int64) (NewsItemRecord, error) {
	const q = `
SELECT
	n.news_item_id,
	n.title,
	n.url,
	n.summary,
	n.published_at,
	n.source_name,
	n.source_slug,
	n.source_logo,
	n.image_url,
	n.language,
	n.active,
	n.created_at
FROM news_items n
WHERE n.news_item_id = $1
`

	var row NewsItemRecord
	err := p.QueryRow(ctx, q, newsItemID).Scan(
		&row.NewsItemID,
		&row.Title,
		&row.URL,
		&row.Summary,
		&row.PublishedAt,
		&row.SourceName,
		&row.SourceSlug,
		&row.SourceLogo,
		&row.ImageURL,
		&row.Language,
		&row.Active,
		&row.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return NewsItemRecord{}, ErrNoRows
		}
		return NewsItemRecord{}, fmt.Errorf("query news item %d: %w", newsItemID, err)
	}

	return row, nil
}

// NewsURLExists reports whether a URL is already stored.
func (p *Pool) NewsURLExists(ctx context.Context, url string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM news_items WHERE url = $1)`

	var exists bool
	if err := p.QueryRow(ctx, q, strings.TrimSpace(url)).Scan(&exists); err != nil {
		return false, fmt.Errorf("query news url: %w", err)
	}
	return exists, nil
}

// InsertNewsItem stores a scraped item. The unique URL index makes the
// insert a no-op for already-seen links; inserted reports whether a row
// was created.
func (p *Pool) InsertNewsItem(ctx context.Context, item scrape.Item) (bool, error) {
	title := strings.TrimSpace(item.Title)
	url := strings.TrimSpace(item.URL)
	if title == "" || url == "" {
		return false, fmt.Errorf("news item requires title and url")
	}

	const q = `
INSERT INTO news_items (
	title, url, summary, published_at,
	source_name, source_slug, source_logo, image_url, language,
	active, created_at
)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), TRUE, NOW())
ON CONFLICT (url) DO NOTHING
`

	var publishedAt *time.Time
	if !item.PublishedAt.IsZero() {
		published := item.PublishedAt.UTC()
		publishedAt = &published
	}

	tag, err := p.Exec(ctx, q,
		title,
		url,
		strings.TrimSpace(item.Summary),
		publishedAt,
		strings.TrimSpace(item.Source),
		strings.TrimSpace(item.SourceID),
		strings.TrimSpace(item.SourceLogo),
		strings.TrimSpace(item.ImageURL),
		strings.TrimSpace(item.Language),
	)
	if err != nil {
		return false, fmt.Errorf("insert news item: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SetNewsItemActive toggles one item's visibility.
func (p *Pool) SetNewsItemActive(ctx context.Context, newsItemID int64, active bool) error {
	const q = `UPDATE news_items SET active = $2 WHERE news_item_id = $1`

	tag, err := p.Exec(ctx, q, newsItemID, active)
	if err != nil {
		return fmt.Errorf("set news item %d active: %w", newsItemID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// ResetNews deletes every stored news item and returns how many were
// removed.
func (p *Pool) ResetNews(ctx context.Context) (int64, error) {
	tag, err := p.Exec(ctx, `DELETE FROM news_items`)
	if err != nil {
		return 0, fmt.Errorf("reset news: %w", err)
	}
	return tag.RowsAffected(), nil
}
