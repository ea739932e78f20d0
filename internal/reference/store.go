package reference

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/exporter"
	"namefinder/pkg/contracts/domain"
)

var tracer = otel.Tracer("namefinder/reference")

// Store writes the reference artifacts to the generated data directory and
// reads them back for prediction-only startup. Writes replace each file
// atomically, so readers never see a partial artifact.
type Store struct {
	paths  *config.Paths
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewStore creates a store over the given data directory layout
func NewStore(paths *config.Paths, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		paths:  paths,
		writer: exporter.NewCSVWriter(paths, logger),
		logger: logger.With(slog.String("component", "reference_store")),
	}
}

// WriteOptions selects what WriteAll produces
type WriteOptions struct {
	Gender GenderOptions
	// Workbook also writes every table to reference.xlsx
	Workbook bool
}

// WriteAll builds the gender reference from ds and writes it together with
// the age reference and the living totals
func (s *Store) WriteAll(ctx context.Context, ds *dataprocessing.Dataset, opts WriteOptions) error {
	_, span := tracer.Start(ctx, "Store.WriteAll")
	defer span.End()
	start := time.Now()

	if err := os.MkdirAll(s.paths.GeneratedDir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create generated directory", err)
	}

	gender := BuildGenderReference(ds, opts.Gender)
	age := ds.AllAgeReference()
	totals := ds.LivingTotals()

	if err := s.WriteGenderReference(gender); err != nil {
		return err
	}
	if err := s.WriteAgeReference(age); err != nil {
		return err
	}
	if err := s.WriteLivingTotals(totals); err != nil {
		return err
	}
	if opts.Workbook {
		err := s.writer.WriteWorkbook(config.ReferenceWorkbookName, []exporter.Sheet{
			exporter.GenderReferenceSheet(gender),
			exporter.AgeReferenceSheet(age),
			exporter.LivingTotalSheet(totals),
		})
		if err != nil {
			return apperrors.NewStorageError("failed to write reference workbook", err)
		}
	}

	span.SetAttributes(
		attribute.Int("gender_rows", len(gender)),
		attribute.Int("age_rows", len(age)),
		attribute.Int("living_total_rows", len(totals)),
	)
	s.logger.Info("Reference artifacts written",
		slog.String("dataset_id", ds.ID),
		slog.Int("gender_rows", len(gender)),
		slog.Int("age_rows", len(age)),
		slog.Int("living_total_rows", len(totals)),
		slog.Bool("workbook", opts.Workbook),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// WriteGenderReference writes the gender classification lookup
func (s *Store) WriteGenderReference(rows []domain.GenderReferenceRow) error {
	err := s.writer.WriteCSV(config.GenderReferenceName, exporter.GenderReferenceHeaders, exporter.GenderReferenceRecords(rows))
	if err != nil {
		return apperrors.NewStorageError("failed to write gender reference", err)
	}
	return nil
}

// WriteAgeReference writes the age reference. rows must be in year order
// within each (name, sex), as the dataset keeps them.
func (s *Store) WriteAgeReference(rows []domain.AgeReferenceRow) error {
	err := s.writer.WriteCSV(config.AgeReferenceFileName, exporter.AgeReferenceHeaders, exporter.AgeReferenceRecords(rows))
	if err != nil {
		return apperrors.NewStorageError("failed to write age reference", err)
	}
	return nil
}

// WriteLivingTotals writes the lifetime living totals
func (s *Store) WriteLivingTotals(rows []domain.LivingTotal) error {
	err := s.writer.WriteCSV(config.TotalLivingFileName, exporter.LivingTotalHeaders, exporter.LivingTotalRecords(rows))
	if err != nil {
		return apperrors.NewStorageError("failed to write living totals", err)
	}
	return nil
}

func (s *Store) readTable(path string, columns []string, fn func(line int, col func(string) string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewUnavailableError("reference artifact missing", err).WithContext("file", path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to open reference artifact", err).WithContext("file", path)
	}
	defer f.Close()
	return dataprocessing.ReadTable(f, path, columns, fn)
}

// ReadGenderReference reads the gender classification lookup
func (s *Store) ReadGenderReference() (GenderReference, error) {
	path := s.paths.GenderReferenceFile
	var rows []domain.GenderReferenceRow

	err := s.readTable(path, exporter.GenderReferenceHeaders, func(line int, col func(string) string) error {
		row := domain.GenderReferenceRow{Name: col("name"), Prediction: domain.GenderClass(col("prediction"))}
		switch row.Prediction {
		case domain.GenderFemale, domain.GenderMale, domain.GenderNeutral, domain.GenderRare, domain.GenderUnknown:
		default:
			return dataprocessing.ParseError(path, line, fmt.Sprintf("invalid prediction %q", row.Prediction), nil)
		}
		var err error
		if row.FPct, err = strconv.Atoi(col("f_pct")); err != nil {
			return dataprocessing.ParseError(path, line, "invalid f_pct", err)
		}
		if row.MPct, err = strconv.Atoi(col("m_pct")); err != nil {
			return dataprocessing.ParseError(path, line, "invalid m_pct", err)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewGenderReference(rows), nil
}

// ReadAgeReference reads the age reference in file order
func (s *Store) ReadAgeReference() ([]domain.AgeReferenceRow, error) {
	path := s.paths.AgeReferenceFile
	var rows []domain.AgeReferenceRow

	err := s.readTable(path, exporter.AgeReferenceHeaders, func(line int, col func(string) string) error {
		sex, err := domain.ParseSex(col("sex"))
		if err != nil {
			return dataprocessing.ParseError(path, line, "invalid sex", err)
		}
		year, err := strconv.Atoi(col("year"))
		if err != nil {
			return dataprocessing.ParseError(path, line, "invalid year", err)
		}
		pct, err := strconv.ParseFloat(col("number_living_pct"), 64)
		if err != nil {
			return dataprocessing.ParseError(path, line, "invalid number_living_pct", err)
		}
		rows = append(rows, domain.AgeReferenceRow{Name: col("name"), Sex: sex, Year: year, NumberLivingPct: pct})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadPredictionDataset reads the age reference artifact into a
// prediction-only dataset
func (s *Store) LoadPredictionDataset(ctx context.Context) (*dataprocessing.Dataset, error) {
	_, span := tracer.Start(ctx, "Store.LoadPredictionDataset")
	defer span.End()

	if err := s.paths.ValidatePredictionFiles(); err != nil {
		return nil, apperrors.NewStorageError("reference artifacts unavailable", err)
	}

	rows, err := s.ReadAgeReference()
	if err != nil {
		return nil, err
	}
	ds, err := dataprocessing.NewPredictionDataset(uuid.NewString(), rows)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("file", s.paths.AgeReferenceFile)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("age_rows", len(rows)))
	s.logger.Info("Prediction dataset loaded",
		slog.String("dataset_id", ds.ID),
		slog.Int("age_rows", len(rows)))
	return ds, nil
}
