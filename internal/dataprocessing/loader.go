package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"namefinder/internal/config"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/files"
	"namefinder/internal/infrastructure"
	"namefinder/pkg/contracts/domain"
)

var tracer = otel.Tracer("namefinder/dataprocessing")

// RawData is the typed content of the input files
type RawData struct {
	// Counts holds every (name, sex, year) row in year order; within a year
	// females come first and each sex is in rank order
	Counts     []domain.CountRecord
	Applicants []domain.ApplicantTotal
	Actuarial  []domain.ActuarialRecord
	// ActuarialTableYear is the cohort table year the survival rows come from
	ActuarialTableYear int
	Years              []int
}

// Loader reads the raw input files of a full build
type Loader struct {
	paths   *config.Paths
	cfg     config.DatasetConfig
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewLoader creates a loader over the given data directory layout
func NewLoader(paths *config.Paths, cfg config.DatasetConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LoadWorkers <= 0 {
		cfg.LoadWorkers = config.DefaultLoadWorkers
	}
	return &Loader{
		paths:   paths,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "loader")),
		metrics: metrics,
	}
}

// Load parses every required file. Any missing or malformed file fails the
// whole load.
func (l *Loader) Load(ctx context.Context) (*RawData, error) {
	ctx, span := tracer.Start(ctx, "Loader.Load")
	defer span.End()
	start := time.Now()

	if err := l.paths.ValidateRequiredFiles(); err != nil {
		return nil, apperrors.NewStorageError("input files unavailable", err)
	}

	counts, years, err := l.loadYearFiles(ctx)
	if err != nil {
		return nil, err
	}

	applicants, err := parseFile(l.paths.ApplicantsFile, func(r io.Reader) ([]domain.ApplicantTotal, error) {
		return ParseApplicants(r, l.paths.ApplicantsFile)
	})
	if err != nil {
		return nil, err
	}

	// the survival table of the latest names year, unless configured
	want := l.cfg.ActuarialTableYear
	if want == 0 {
		want = years[len(years)-1]
	}

	var actuarial []domain.ActuarialRecord
	tableYear := 0
	for _, sex := range domain.BothSexes {
		path := l.paths.ActuarialFile(string(sex))
		var year int
		records, err := parseFile(path, func(r io.Reader) ([]domain.ActuarialRecord, error) {
			recs, y, err := ParseActuarial(r, sex, want, path)
			year = y
			return recs, err
		})
		if err != nil {
			return nil, err
		}
		if year != want {
			l.logger.WarnContext(ctx, "Actuarial table year not found, using nearest table",
				slog.Int("wanted", want),
				slog.Int("used", year),
				slog.String("sex", string(sex)))
		}
		tableYear = max(tableYear, year)
		actuarial = append(actuarial, records...)
	}

	raw := &RawData{
		Counts:             counts,
		Applicants:         applicants,
		Actuarial:          actuarial,
		ActuarialTableYear: tableYear,
		Years:              years,
	}

	span.SetAttributes(
		attribute.Int("years", len(years)),
		attribute.Int("count_records", len(counts)),
	)
	l.metrics.RecordBuildStage(ctx, "load", time.Since(start))
	l.metrics.RecordTableRows(ctx, "counts", len(counts))
	l.logger.InfoContext(ctx, "Raw data loaded",
		slog.Int("years", len(years)),
		slog.Int("count_records", len(counts)),
		slog.Int("applicant_years", len(applicants)),
		slog.Int("actuarial_records", len(actuarial)),
		slog.Int("actuarial_table_year", tableYear),
		slog.Duration("duration", time.Since(start)))

	return raw, nil
}

// loadYearFiles parses the per-year files concurrently and concatenates the
// results in year order
func (l *Loader) loadYearFiles(ctx context.Context) ([]domain.CountRecord, []int, error) {
	yearFiles, err := files.FindYearFiles(l.paths.NamesDir)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to list year files", err).WithContext("file", l.paths.NamesDir)
	}
	yearFiles = files.FilterYearFiles(yearFiles, l.cfg.MinYear, 0)
	if len(yearFiles) == 0 {
		return nil, nil, apperrors.NewStorageError("no year files found", nil).WithContext("file", l.paths.NamesDir)
	}

	perYear := make([][]domain.CountRecord, len(yearFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.LoadWorkers)

	for i, yf := range yearFiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := parseFile(yf.Path, func(r io.Reader) ([]domain.CountRecord, error) {
				return ParseYearFile(r, yf.Year, yf.Path)
			})
			if err != nil {
				return err
			}
			perYear[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	total := 0
	for _, records := range perYear {
		total += len(records)
	}
	counts := make([]domain.CountRecord, 0, total)
	years := make([]int, len(yearFiles))
	for i, records := range perYear {
		counts = append(counts, records...)
		years[i] = yearFiles[i].Year
	}

	return counts, years, nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open input file", err).WithContext("file", path)
	}
	defer f.Close()

	records, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return records, nil
}
