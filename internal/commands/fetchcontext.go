package commands

import (
	"context"
	"fmt"
	"log/slog"

	"foundrylabs/foundryctl/internal/config"
	"foundrylabs/foundryctl/internal/recipes"
)

// FetchContext pulls the configured source files and writes the system
// message context document. It needs no model endpoint.
func FetchContext(ctx context.Context, cfg *config.Configuration, logger *slog.Logger) error {
	sources, err := recipes.LoadSources(cfg.Recipes.ContextSources)
	if err != nil {
		return err
	}

	fetcher := recipes.NewFetcher(logger)
	if err := fetcher.WriteContext(ctx, sources, cfg.Recipes.ContextFile); err != nil {
		return err
	}
	fmt.Printf("wrote %s from %d sources\n", cfg.Recipes.ContextFile, len(sources))
	return nil
}
