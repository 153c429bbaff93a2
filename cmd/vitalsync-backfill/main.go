package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/C-Tharun/vitalsync/internal/aggregate"
	"github.com/C-Tharun/vitalsync/internal/config"
	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/C-Tharun/vitalsync/internal/provider/fitapi"
	"github.com/C-Tharun/vitalsync/internal/store"
	"github.com/C-Tharun/vitalsync/internal/syncer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.String("user", "", "user to backfill (required)")
	days := flag.Int("days", 30, "how many days back to sync")
	metric := flag.String("metric", "", "single metric kind to sync (default: all)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *userID == "" {
		fmt.Fprintf(os.Stderr, "Usage: vitalsync-backfill -config config.yaml -user <id> [-days N] [-metric KIND]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Sync.Location()
	if err != nil {
		log.Error("failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	kinds := models.AllMetricKinds()
	if *metric != "" {
		kind := models.MetricKind(*metric)
		if !kind.Valid() {
			log.Error("unknown metric kind", "metric", *metric)
			os.Exit(1)
		}
		kinds = []models.MetricKind{kind}
	}

	prov := fitapi.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token, log)
	sy := syncer.New(st, prov, nil, log, loc)

	now := time.Now().UnixMilli()
	start := aggregate.AddDays(aggregate.DayStart(now, loc), -(*days - 1), loc)
	log.Info("backfill starting", "user", *userID, "days", *days, "kinds", len(kinds))

	failed := 0
	for _, kind := range kinds {
		if err := sy.SyncHistory(ctx, *userID, kind, start, now); err != nil {
			log.Error("backfill failed", "metric", string(kind), "error", err)
			failed++
		}
	}

	if failed > 0 {
		log.Error("backfill finished with failures", "failed", failed)
		os.Exit(1)
	}
	log.Info("backfill complete")
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.Database.Driver == "postgres" {
		dsn := cfg.Database.DSN()
		if err := store.RunMigrations(dsn, "migrations"); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		return store.OpenPostgres(ctx, dsn)
	}
	return store.OpenSQLite(cfg.Database.Dir)
}
