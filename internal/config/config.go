package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// defaultPoliticalKeywords mirrors the keyword preset used by the
// political-news refresh: an item must mention at least one of these
// terms in its title or summary to survive the filter.
const defaultPoliticalKeywords = "elecciones,presidencial,candidato,campaña,votación,encuesta,política,gobierno,congreso,senado,diputado,electoral"

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CIVICA_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CIVICA_DB_MAX_CONNS" default:"8"`

	ElectionYear  string `envconfig:"ELECTION_YEAR" default:"2024"`
	ElectionTitle string `envconfig:"ELECTION_TITLE" default:"Elecciones Presidenciales Chile"`
	ElectionType  string `envconfig:"ELECTION_TYPE" default:"Presidenciales"`
	SiteName      string `envconfig:"SITE_NAME" default:"Sistema de Encuestas"`

	DefaultAdminUser     string `envconfig:"DEFAULT_ADMIN_USER" default:"admin"`
	DefaultAdminPassword string `envconfig:"DEFAULT_ADMIN_PASSWORD" default:""`
	SessionTTLHours      int    `envconfig:"SESSION_TTL_HOURS" default:"168"`
	SessionCookieName    string `envconfig:"SESSION_COOKIE_NAME" default:"civica_session"`
	SessionCookieSecure  bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`
	CORSAllowedOrigins   string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	ScrapeTimeoutSeconds int    `envconfig:"SCRAPE_TIMEOUT_SECONDS" default:"10"`
	ScrapeLimit          int    `envconfig:"SCRAPE_LIMIT" default:"20"`
	PoliticalKeywords    string `envconfig:"POLITICAL_KEYWORDS" default:""`

	// AffinityUnansweredPolicy selects how the quiz engine treats a
	// question the candidate never answered: "zero" keeps it in the
	// denominator at zero points, "exclude" drops it from the
	// denominator.
	AffinityUnansweredPolicy string `envconfig:"AFFINITY_UNANSWERED_POLICY" default:"zero"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CIVICA_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CIVICA_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CIVICA_DB_MIN_CONNS (%d) cannot exceed CIVICA_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.DefaultAdminUser) == "" {
		return fmt.Errorf("DEFAULT_ADMIN_USER is required")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be >= 1")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}
	if c.ScrapeTimeoutSeconds < 1 {
		return fmt.Errorf("SCRAPE_TIMEOUT_SECONDS must be >= 1")
	}
	if c.ScrapeLimit < 1 {
		return fmt.Errorf("SCRAPE_LIMIT must be >= 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.AffinityUnansweredPolicy)) {
	case "zero", "exclude":
	default:
		return fmt.Errorf("AFFINITY_UNANSWERED_POLICY must be \"zero\" or \"exclude\"")
	}
	return nil
}

func (c *Config) ScrapeTimeout() time.Duration {
	if c == nil || c.ScrapeTimeoutSeconds < 1 {
		return 10 * time.Second
	}
	return time.Duration(c.ScrapeTimeoutSeconds) * time.Second
}

func (c *Config) PoliticalKeywordList() []string {
	raw := defaultPoliticalKeywords
	if c != nil && strings.TrimSpace(c.PoliticalKeywords) != "" {
		raw = c.PoliticalKeywords
	}
	return splitCommaList(raw)
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitCommaList(c.CORSAllowedOrigins)
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
