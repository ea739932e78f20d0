package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"namefinder/internal/config"
	"namefinder/internal/infrastructure"
	"namefinder/internal/scraper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("Refresh failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run downloads the SSA inputs into the data directory and prints the
// refresh summary as JSON
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to the YAML config file (defaults to NAMEFINDER_CONFIG or namefinder.yaml)")
	dataDir := fs.String("data", "", "data directory (overrides the config)")
	baseURL := fs.String("base-url", "", "SSA base URL (overrides the config)")
	force := fs.Bool("force", false, "download even when the local data is up to date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *baseURL != "" {
		cfg.Refresh.BaseURL = *baseURL
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger = infrastructure.WithComponent(logger, "scraper")
	ctx = infrastructure.EnsureTraceID(ctx)

	logger.InfoContext(ctx, "Starting data refresh",
		slog.String("base_url", cfg.Refresh.BaseURL),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.Bool("force", *force))

	client := scraper.NewClient(cfg.Refresh, logger)
	refresher := scraper.NewRefresher(client, cfg.Paths.Resolve(), logger)

	res, err := refresher.Refresh(ctx, *force)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
