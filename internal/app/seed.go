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

func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Seed operation timeout")

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

	if err := ensureSiteConfig(ctx, pool, cfg); err != nil {
		logger.Error().Err(err).Msg("site config bootstrap failed")
		fmt.Fprintf(os.Stderr, "Failed to bootstrap site config: %v\n", err)
		return 1
	}
	if err := ensureDefaultAdmin(ctx, pool, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("default admin bootstrap failed")
		fmt.Fprintf(os.Stderr, "Failed to bootstrap default admin: %v\n", err)
		return 1
	}

	summary, err := pool.SeedDemoData(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("seed failed")
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		return 1
	}

	logger.Info().
		Int("candidates", summary.Candidates).
		Int("questions", summary.Questions).
		Int("answers", summary.Answers).
		Int("sources", summary.Sources).
		Msg("demo data seeded")
	fmt.Printf("ok: seeded %d candidates, %d questions, %d answers, %d sources\n",
		summary.Candidates, summary.Questions, summary.Answers, summary.Sources)
	return 0
}
