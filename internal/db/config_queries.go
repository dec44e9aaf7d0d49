package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SiteConfigRecord is the single site configuration row.
type SiteConfigRecord struct {
	ElectionYear    string    `json:"election_year"`
	ElectionTitle   string    `json:"election_title"`
	ElectionType    string    `json:"election_type"`
	SiteName        string    `json:"site_name"`
	MaintenanceMode bool      `json:"maintenance_mode"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SiteConfigInput carries admin-supplied configuration updates.
type SiteConfigInput struct {
	ElectionYear    string `json:"election_year"`
	ElectionTitle   string `json:"election_title"`
	ElectionType    string `json:"election_type"`
	SiteName        string `json:"site_name"`
	MaintenanceMode *bool  `json:"maintenance_mode"`
}

// GetSiteConfig returns the configuration row or ErrNoRows when the
// site was never bootstrapped.
func (p *Pool) GetSiteConfig(ctx context.Context) (SiteConfigRecord, error) {
	const q = `
SELECT
	election_year,
	election_title,
	election_type,
	site_name,
	maintenance_mode,
	updated_at
FROM site_config
ORDER BY config_id ASC
LIMIT 1
`

	var row SiteConfigRecord
	err := p.QueryRow(ctx, q).Scan(
		&row.ElectionYear,
		&row.ElectionTitle,
		&row.ElectionType,
		&row.SiteName,
		&row.MaintenanceMode,
		&row.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return SiteConfigRecord{}, ErrNoRows
		}
		return SiteConfigRecord{}, fmt.Errorf("query site config: %w", err)
	}

	return row, nil
}

// EnsureSiteConfig inserts the configuration row when missing and
// returns the stored row.
func (p *Pool) EnsureSiteConfig(ctx context.Context, defaults SiteConfigInput) (SiteConfigRecord, error) {
	const q = `
INSERT INTO site_config (election_year, election_title, election_type, site_name, maintenance_mode, updated_at)
SELECT $1, $2, $3, $4, FALSE, NOW()
WHERE NOT EXISTS (SELECT 1 FROM site_config)
`

	if _, err := p.Exec(ctx, q,
		strings.TrimSpace(defaults.ElectionYear),
		strings.TrimSpace(defaults.ElectionTitle),
		strings.TrimSpace(defaults.ElectionType),
		strings.TrimSpace(defaults.SiteName),
	); err != nil {
		return SiteConfigRecord{}, fmt.Errorf("ensure site config row: %w", err)
	}

	return p.GetSiteConfig(ctx)
}

// UpdateSiteConfig overwrites the configuration row. Blank fields keep
// their stored value.
func (p *Pool) UpdateSiteConfig(ctx context.Context, in SiteConfigInput) (SiteConfigRecord, error) {
	const q = `
UPDATE site_config
SET election_year = COALESCE(NULLIF($1, ''), election_year),
    election_title = COALESCE(NULLIF($2, ''), election_title),
    election_type = COALESCE(NULLIF($3, ''), election_type),
    site_name = COALESCE(NULLIF($4, ''), site_name),
    maintenance_mode = COALESCE($5, maintenance_mode),
    updated_at = NOW()
`

	tag, err := p.Exec(ctx, q,
		strings.TrimSpace(in.ElectionYear),
		strings.TrimSpace(in.ElectionTitle),
		strings.TrimSpace(in.ElectionType),
		strings.TrimSpace(in.SiteName),
		in.MaintenanceMode,
	)
	if err != nil {
		return SiteConfigRecord{}, fmt.Errorf("update site config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return SiteConfigRecord{}, ErrNoRows
	}

	return p.GetSiteConfig(ctx)
}
