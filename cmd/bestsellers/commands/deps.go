package commands

import (
	"context"
	"fmt"
	"log/slog"
	"nytbestsellers/internal/components/telemetry"
	"nytbestsellers/internal/config"
	"nytbestsellers/internal/reconcile"
	"nytbestsellers/internal/scrapers/amazon"
	"nytbestsellers/internal/scrapers/apple"
	"nytbestsellers/internal/scrapers/nyt"
	"nytbestsellers/internal/snapshot"
	"nytbestsellers/internal/store"
	"os"
	"time"

	random "github.com/mazen160/go-random"
)

func readConfig() (config.Config, error) {
	cfg, err := config.Read(*configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// readPeriod only looks at the environment, commands call it before touching
// any file.
func readPeriod() (nyt.Period, error) {
	period, err := config.PeriodFromEnv(os.LookupEnv)
	if err != nil {
		return nyt.Period{}, fmt.Errorf("read run period: %w", err)
	}
	return period, nil
}

// runTelemetry scopes the reports of one invocation under a random id so
// that interleaved logs of concurrent runs can be told apart.
func runTelemetry() (telemetry.API, error) {
	id, err := random.String(8)
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	slog.Info("starting run", "run", id)
	return telemetry.NewScopedAPI(fmt.Sprintf("run %s", id), telemetry.SlogAPI{}), nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func closeStore(st store.Store) {
	err := st.Close()
	if err != nil {
		slog.Warn("failed to close store", "err", err.Error())
	}
}

func newAppleClient(cfg config.Config, tel telemetry.API) (*apple.Client, error) {
	client, err := apple.NewClient(apple.ClientOptions{
		Timeout:         time.Duration(cfg.Apple.Timeout),
		RequestInterval: time.Duration(cfg.Apple.RequestInterval),
	}, tel)
	if err != nil {
		return nil, fmt.Errorf("create apple books client: %w", err)
	}
	return client, nil
}

func newEngine(cfg config.Config, st store.Store, tel telemetry.API) (reconcile.Engine, error) {
	nytClient, err := nyt.NewClient(nyt.ClientOptions{
		BaseUrl:      cfg.NYT.BaseUrl,
		ApiKey:       cfg.NYT.ApiKey,
		RequestDelay: time.Duration(cfg.NYT.RequestDelay),
		Timeout:      time.Duration(cfg.NYT.Timeout),
	}, tel)
	if err != nil {
		return reconcile.Engine{}, fmt.Errorf("create nyt client: %w", err)
	}
	appleClient, err := newAppleClient(cfg, tel)
	if err != nil {
		return reconcile.Engine{}, err
	}

	products := amazon.NewScraper(amazon.Options{
		Launcher: amazon.RodLauncher{
			ControlURL: cfg.Amazon.ControlURL,
			Headless:   cfg.Amazon.IsHeadless(),
		},
	}, tel)

	return reconcile.NewEngine(
		nytClient,
		products,
		appleClient,
		st,
		snapshot.NewDir(cfg.Data.RawDir),
		tel,
	), nil
}
