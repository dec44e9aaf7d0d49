package db

import (
	"context"
	"fmt"
	"time"
)

// SiteStats aggregates admin dashboard counters.
type SiteStats struct {
	Candidates      int64      `json:"candidates"`
	Questions       int64      `json:"questions"`
	Votes           int64      `json:"votes"`
	NewsItems       int64      `json:"news_items"`
	ActiveNewsItems int64      `json:"active_news_items"`
	NewsSources     int64      `json:"news_sources"`
	AdminUsers      int64      `json:"admin_users"`
	LatestNewsAt    *time.Time `json:"latest_news_at,omitempty"`
	LatestVoteAt    *time.Time `json:"latest_vote_at,omitempty"`
}

// GetSiteStats counts every tracked entity in one round trip.
func (p *Pool) GetSiteStats(ctx context.Context) (SiteStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*)::BIGINT FROM candidates) AS candidates,
	(SELECT COUNT(*)::BIGINT FROM questions) AS questions,
	(SELECT COUNT(*)::BIGINT FROM votes) AS votes,
	(SELECT COUNT(*)::BIGINT FROM news_items) AS news_items,
	(SELECT COUNT(*)::BIGINT FROM news_items WHERE active) AS active_news_items,
	(SELECT COUNT(*)::BIGINT FROM news_sources) AS news_sources,
	(SELECT COUNT(*)::BIGINT FROM admin_users) AS admin_users,
	(SELECT MAX(COALESCE(published_at, created_at)) FROM news_items) AS latest_news_at,
	(SELECT MAX(created_at) FROM votes) AS latest_vote_at
`

	var stats SiteStats
	err := p.QueryRow(ctx, q).Scan(
		&stats.Candidates,
		&stats.Questions,
		&stats.Votes,
		&stats.NewsItems,
		&stats.ActiveNewsItems,
		&stats.NewsSources,
		&stats.AdminUsers,
		&stats.LatestNewsAt,
		&stats.LatestVoteAt,
	)
	if err != nil {
		return SiteStats{}, fmt.Errorf("query site stats: %w", err)
	}

	return stats, nil
}
