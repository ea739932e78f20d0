package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"namefinder/internal/app"
	"namefinder/internal/config"
	"namefinder/internal/infrastructure"
	"namefinder/internal/reference"
	"namefinder/internal/services"
)

// cli holds the state shared by the subcommands of one invocation
type cli struct {
	configFile     string
	dataDir        string
	predictionOnly bool
	verbose        bool

	service *services.NamesService
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "namefinder",
		Short: "Query name popularity, gender and age data",
		Long: `namefinder answers questions about first names from the national
birth-count files: popularity profiles, pattern searches and gender and
birth-year predictions. Every answer is printed as JSON.

The dataset is built from the data directory on each run, or read from
the generated reference files with --prediction-only.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "path to the YAML config file")
	root.PersistentFlags().StringVar(&c.dataDir, "data", "", "data directory (overrides the config)")
	root.PersistentFlags().BoolVar(&c.predictionOnly, "prediction-only", false, "load the generated references instead of building the dataset")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log build progress to stderr")

	root.AddCommand(
		c.nameCmd(),
		c.searchCmd(),
		c.peaksCmd(),
		c.genderCmd(),
		c.ageCmd(),
	)
	return root
}

// setup loads the configuration and builds the dataset the subcommand
// queries
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFrom(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.Paths.DataDir = c.dataDir
	}
	if cmd.Flags().Changed("prediction-only") {
		cfg.Dataset.PredictionOnly = c.predictionOnly
	}

	// stdout carries the JSON answer, so logs go to stderr
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelInfo
	}
	logger := infrastructure.NewLoggerWithWriter(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})

	paths := cfg.Paths.Resolve()
	store := reference.NewStore(paths, logger)
	ds, err := app.LoadDataset(cmd.Context(), cfg.Dataset, paths, store, logger, nil)
	if err != nil {
		return err
	}
	c.service = services.NewNamesService(ds, cfg.Dataset, store, nil, logger)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// yearFlags registers the shared birth-year selectors on cmd
func yearFlags(cmd *cobra.Command, years *services.YearRange) {
	cmd.Flags().IntVar(&years.After, "after", 0, "first birth year (inclusive)")
	cmd.Flags().IntVar(&years.Before, "before", 0, "last birth year (inclusive)")
	cmd.Flags().IntVar(&years.Year, "year", 0, "single birth year")
}
