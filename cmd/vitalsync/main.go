package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	"github.com/C-Tharun/vitalsync/internal/config"
	"github.com/C-Tharun/vitalsync/internal/provider/fitapi"
	"github.com/C-Tharun/vitalsync/internal/server"
	"github.com/C-Tharun/vitalsync/internal/store"
	"github.com/C-Tharun/vitalsync/internal/syncer"
	"github.com/C-Tharun/vitalsync/internal/view"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres only)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("VitalSync starting", "version", Version)

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
	st, err := openStore(ctx, cfg, *migrateOnly, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}
	defer st.Close()

	prov := fitapi.NewClient(cfg.Provider.BaseURL, cfg.Provider.Token, log)
	notifier := store.NewNotifier()
	sy := syncer.New(st, prov, notifier, log, loc)
	engine := view.NewEngine(st, sy, notifier, log, loc)
	defer engine.Close()

	srv := server.New(st, sy, engine, cfg.Auth.APIKey, loc, log)

	// Periodic background sync for the active user
	stopSync := make(chan struct{})
	if interval := time.Duration(cfg.Sync.Interval); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-stopSync:
					return
				case <-ticker.C:
					userID, _ := engine.User()
					if userID == "" {
						continue
					}
					if err := sy.SyncAllMetricsForToday(ctx, userID); err != nil {
						log.Warn("periodic sync failed", "user", userID, "error", err)
					}
				}
			}
		}()
		log.Info("periodic sync enabled", "interval", interval.String())
	}

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	close(stopSync)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// openStore opens the configured backend, applying migrations for postgres.
func openStore(ctx context.Context, cfg *config.Config, migrateOnly bool, log *slog.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		dsn := cfg.Database.DSN()
		if err := store.RunMigrations(dsn, "migrations"); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, nil
		}
		return store.OpenPostgres(ctx, dsn)
	default:
		if migrateOnly {
			return nil, nil
		}
		return store.OpenSQLite(cfg.Database.Dir)
	}
}
