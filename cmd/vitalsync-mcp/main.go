package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/C-Tharun/vitalsync/internal/config"
	"github.com/C-Tharun/vitalsync/internal/mcp"
	"github.com/C-Tharun/vitalsync/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.String("user", "", "user to scope queries to (required)")
	flag.Parse()

	// MCP talks JSON-RPC on stdout, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *userID == "" {
		log.Error("-user is required")
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

	var st store.Store
	if cfg.Database.Driver == "postgres" {
		st, err = store.OpenPostgres(context.Background(), cfg.Database.DSN())
	} else {
		st, err = store.OpenSQLite(cfg.Database.Dir)
	}
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	s := mcp.New(st, loc, *userID, Version, log)
	log.Info("MCP server starting", "user", *userID)
	if err := server.ServeStdio(s); err != nil {
		log.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
