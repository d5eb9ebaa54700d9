package commands

import (
	"context"
	"fmt"
	"log/slog"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/config"
	"nytbestsellers/internal/loader"
	"nytbestsellers/internal/normalize"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"nytbestsellers/internal/store"
)

func collectStep(ctx context.Context, cfg config.Config, st store.Store, tel telemetry.API, period nyt.Period) (*snapshot.EnrichedItem, error) {
	engine, err := newEngine(cfg, st, tel)
	if err != nil {
		return nil, err
	}
	item, err := engine.CollectForPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	if item == nil {
		slog.Info("every book of the period is stored already", "period", period.String())
		return nil, nil
	}
	slog.Info("collected item", "id", item.NewID, "amazon_results", len(item.AmazonData))
	return item, nil
}

func transformStep(ctx context.Context, cfg config.Config) (normalize.Records, error) {
	item, err := snapshot.NewDir(cfg.Data.RawDir).LoadStaging()
	if err != nil {
		return normalize.Records{}, fmt.Errorf("read staging: %w", err)
	}
	records, err := normalize.Transform(ctx, item)
	if err != nil {
		return normalize.Records{}, fmt.Errorf("transform: %w", err)
	}
	err = loader.WriteProcessed(cfg.Data.ProcessedDir, records)
	if err != nil {
		return normalize.Records{}, fmt.Errorf("write processed: %w", err)
	}
	slog.Info(
		"transformed item",
		"id", records.Book.ID,
		"ranks", len(records.Ranks),
		"reviews", len(records.Reviews),
	)
	return records, nil
}

func loadStep(ctx context.Context, cfg config.Config, st store.Store, tel telemetry.API) (loader.Result, error) {
	records, err := loader.ReadProcessed(cfg.Data.ProcessedDir)
	if err != nil {
		return loader.Result{}, fmt.Errorf("read processed: %w", err)
	}
	result, err := loader.NewLoader(st, tel).Load(ctx, records)
	if err != nil {
		return result, fmt.Errorf("load: %w", err)
	}
	slog.Info(
		"loaded item",
		"id", records.Book.ID,
		"book_inserted", result.BookInserted,
		"ranks", result.Ranks,
		"reviews", result.Reviews,
	)
	return result, nil
}
