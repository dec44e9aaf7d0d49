package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/civica/internal/cli"
)

func runRefreshNews(args []string) int {
	fs := flag.NewFlagSet("refresh-news", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 0, "Maximum items to keep (0 uses SCRAPE_LIMIT)")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall refresh timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadEnvironment(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	pool, err := connectPool(cfg, logger, 10*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	aggregator, err := buildAggregator(ctx, pool, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("aggregator setup failed")
		fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
		return 1
	}

	keepLimit := *limit
	if keepLimit <= 0 {
		keepLimit = cfg.ScrapeLimit
	}

	items := aggregator.PoliticalNews(ctx, keepLimit)

	newCount := 0
	for _, item := range items {
		exists, err := pool.NewsURLExists(ctx, item.URL)
		if err != nil {
			logger.Error().Err(err).Str("url", item.URL).Msg("news url lookup failed")
			continue
		}
		if exists {
			continue
		}

		inserted, err := pool.InsertNewsItem(ctx, item)
		if err != nil {
			logger.Error().Err(err).Str("url", item.URL).Msg("insert news item failed")
			continue
		}
		if inserted {
			newCount++
		}
	}

	logger.Info().
		Int("total_scraped", len(items)).
		Int("new_count", newCount).
		Msg("news refresh complete")
	fmt.Printf("ok: scraped %d items, stored %d new\n", len(items), newCount)
	return 0
}
