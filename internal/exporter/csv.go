package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"namefinder/internal/config"
	"namefinder/internal/files"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		paths:  paths,
		logger: logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteCSV writes headers and records to filePath, replacing any existing
// file atomically. Relative paths land in the generated data directory.
func (w *CSVWriter) WriteCSV(filePath string, headers []string, records [][]string) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(records)))

	return files.WriteAtomic(fullPath, func(out io.Writer) error {
		writer := csv.NewWriter(out)
		if len(headers) > 0 {
			if err := writer.Write(headers); err != nil {
				return fmt.Errorf("failed to write headers: %w", err)
			}
		}
		for i, record := range records {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// resolvePath places relative paths in the generated directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.GeneratedDir, filePath)
}
