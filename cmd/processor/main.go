package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"namefinder/internal/app"
	"namefinder/internal/config"
	"namefinder/internal/infrastructure"
	"namefinder/internal/reference"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run builds the full dataset and writes the reference artifacts
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to the YAML config file (defaults to NAMEFINDER_CONFIG or namefinder.yaml)")
	dataDir := fs.String("data", "", "data directory (overrides the config)")
	workbook := fs.Bool("workbook", false, "also write every reference table to "+config.ReferenceWorkbookName)
	after := fs.Int("after", 0, "first birth year of the gender reference, 0 for no bound (defaults to the data quality cutoff)")
	ratioMin := fs.Float64("ratio-min", config.DefaultGenderLeanMin, "minimum sex ratio for a gendered classification")
	numberMin := fs.Int("number-min", config.DefaultGenderMinCount, "minimum births for a classification")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	// the processor always rebuilds from the source files
	cfg.Dataset.PredictionOnly = false

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger = infrastructure.WithComponent(logger, "processor")
	ctx = infrastructure.EnsureTraceID(ctx)

	start := time.Now()
	paths := cfg.Paths.Resolve()
	store := reference.NewStore(paths, logger)

	ds, err := app.LoadDataset(ctx, cfg.Dataset, paths, store, logger, nil)
	if err != nil {
		return err
	}

	// only flags given on the command line override the configured options
	opts := reference.DefaultGenderOptions(cfg.Dataset)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "after":
			opts.After = *after
		case "ratio-min":
			opts.RatioMin = *ratioMin
		case "number-min":
			opts.NumberMin = *numberMin
		}
	})

	if err := store.WriteAll(ctx, ds, reference.WriteOptions{Gender: opts, Workbook: *workbook}); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Reference artifacts written to %s (dataset %s, %d-%d) in %s\n",
		paths.GeneratedDir, ds.ID, ds.MinYear, ds.MaxYear, time.Since(start).Round(time.Millisecond))
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
