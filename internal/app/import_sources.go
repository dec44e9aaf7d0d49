package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/civica/internal/cli"
	"horse.fit/civica/internal/db"
	sourceschema "horse.fit/civica/schema"
)

func runImportSources(args []string) int {
	fs := flag.NewFlagSet("import-sources", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	file := fs.String("file", "", "Path to the JSON source document")
	timeout := fs.Duration("timeout", 30*time.Second, "Import operation timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}

	payload, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *file, err)
		return 1
	}

	doc, err := sourceschema.ValidateImportPayload(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid source document: %v\n", err)
		return 1
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

	imported := 0
	updated := 0
	for _, entry := range doc.Sources {
		_, inserted, err := pool.UpsertNewsSource(ctx, db.NewsSourceInput{
			Slug:   entry.Slug,
			Name:   entry.Name,
			URL:    entry.URL,
			Kind:   entry.Kind,
			Logo:   entry.Logo,
			Active: entry.Active,
		})
		if err != nil {
			logger.Error().Err(err).Str("slug", entry.Slug).Msg("import news source failed")
			fmt.Fprintf(os.Stderr, "Import failed for %s: %v\n", entry.Slug, err)
			return 1
		}
		if inserted {
			imported++
		} else {
			updated++
		}
	}

	logger.Info().
		Int("imported", imported).
		Int("updated", updated).
		Str("file", *file).
		Msg("source import complete")
	fmt.Printf("ok: imported %d sources, updated %d\n", imported, updated)
	return 0
}
