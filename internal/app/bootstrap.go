package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/civica/internal/auth"
	"horse.fit/civica/internal/cli"
	"horse.fit/civica/internal/config"
	"horse.fit/civica/internal/db"
	"horse.fit/civica/internal/langdetect"
	"horse.fit/civica/internal/logging"
	"horse.fit/civica/internal/scrape"
)

// loadEnvironment applies the --env file (when present), loads config,
// and builds the logger. Shared by every command.
func loadEnvironment(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func connectPool(cfg *config.Config, logger zerolog.Logger, timeout time.Duration) (*db.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		return nil, err
	}
	return pool, nil
}

// buildAggregator wires the scraper against the stored source list,
// falling back to the built-in Chilean sources when none are
// configured.
func buildAggregator(ctx context.Context, pool *db.Pool, cfg *config.Config, logger zerolog.Logger) (*scrape.Aggregator, error) {
	records, err := pool.ListNewsSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load news sources: %w", err)
	}

	sources := make([]scrape.Source, 0, len(records))
	for _, record := range records {
		sources = append(sources, record.ScrapeSource())
	}
	if len(sources) == 0 {
		sources = scrape.DefaultSources()
	}

	return scrape.NewAggregator(sources, logger, scrapeOptions(cfg)), nil
}

func scrapeOptions(cfg *config.Config) scrape.Options {
	return scrape.Options{
		Timeout:           cfg.ScrapeTimeout(),
		PoliticalKeywords: cfg.PoliticalKeywordList(),
		DetectLanguage:    langdetect.DetectISO6391,
	}
}

func ensureDefaultAdmin(ctx context.Context, pool *db.Pool, cfg *config.Config, logger zerolog.Logger) error {
	if pool == nil || cfg == nil {
		return fmt.Errorf("ensure default admin: missing dependencies")
	}

	userCount, err := pool.CountAdminUsers(ctx)
	if err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	username := auth.NormalizeUsername(cfg.DefaultAdminUser)
	password := strings.TrimSpace(cfg.DefaultAdminPassword)
	if username == "" || password == "" {
		return fmt.Errorf("default admin credentials are empty")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	if _, err := pool.CreateAdminUser(ctx, username, passwordHash); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate key value") {
			return nil
		}
		return err
	}

	logger.Warn().
		Str("username", username).
		Msg("created default admin user")

	return nil
}

func ensureSiteConfig(ctx context.Context, pool *db.Pool, cfg *config.Config) error {
	_, err := pool.EnsureSiteConfig(ctx, db.SiteConfigInput{
		ElectionYear:  cfg.ElectionYear,
		ElectionTitle: cfg.ElectionTitle,
		ElectionType:  cfg.ElectionType,
		SiteName:      cfg.SiteName,
	})
	return err
}
