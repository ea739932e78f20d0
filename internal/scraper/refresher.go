package scraper

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"namefinder/internal/config"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/exporter"
	"namefinder/internal/files"
	"namefinder/pkg/contracts/domain"
)

var tracer = otel.Tracer("namefinder/scraper")

// SSA document locations, relative to the base URL
const (
	LimitsPath     = "/oact/babynames/limits.html"
	NamesZipPath   = "/oact/babynames/names.zip"
	ApplicantsPath = "/oact/babynames/numberUSbirths.html"
)

// LifeTablePath returns the location of the cohort life table of sex
// published with the trustees report of tableYear
func LifeTablePath(tableYear int, sex domain.Sex) string {
	s := strings.ToUpper(string(sex))
	return fmt.Sprintf("/oact/HistEst/CohLifeTables/%d/CohLifeTables_%s_Alt2_TR%d.txt", tableYear, s, tableYear)
}

var yearFilePattern = regexp.MustCompile(config.YearFilePattern)

// Refresher downloads the raw input files into the data directory
type Refresher struct {
	client *Client
	paths  *config.Paths
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewRefresher creates a refresher writing under paths
func NewRefresher(client *Client, paths *config.Paths, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		client: client,
		paths:  paths,
		writer: exporter.NewCSVWriter(paths, logger),
		logger: logger.With(slog.String("component", "refresher")),
	}
}

// Result summarizes a refresh run
type Result struct {
	LatestYear    int  `json:"latest_year"`
	LocalYear     int  `json:"local_year"`
	Updated       bool `json:"updated"`
	YearFiles     int  `json:"year_files"`
	Applicants    int  `json:"applicants"`
	LifeTableYear int  `json:"life_table_year,omitempty"`
}

// LatestYear returns the most recent birth year published by the SSA
func (r *Refresher) LatestYear(ctx context.Context) (int, error) {
	body, err := r.client.Get(ctx, LimitsPath)
	if err != nil {
		return 0, err
	}
	year, err := parseLatestYear(bytes.NewReader(body))
	if err != nil {
		return 0, apperrors.NewParsingError("failed to read latest year", err).WithContext("file", LimitsPath)
	}
	return year, nil
}

// LocalYear returns the latest year of the per-year files on disk, or 0
func (r *Refresher) LocalYear() int {
	found, err := files.FindYearFiles(r.paths.NamesDir)
	if err != nil || len(found) == 0 {
		return 0
	}
	return found[len(found)-1].Year
}

// Refresh downloads every input when the SSA publishes a year the local
// data does not have yet, or unconditionally with force
func (r *Refresher) Refresh(ctx context.Context, force bool) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Refresher.Refresh")
	defer span.End()
	start := time.Now()

	latest, err := r.LatestYear(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{LatestYear: latest, LocalYear: r.LocalYear()}
	span.SetAttributes(attribute.Int("latest_year", latest), attribute.Int("local_year", res.LocalYear))

	if !force && res.LocalYear >= latest {
		r.logger.Info("Data is up to date",
			slog.Int("latest_year", latest),
			slog.Int("local_year", res.LocalYear))
		return res, nil
	}

	if res.YearFiles, err = r.DownloadNames(ctx); err != nil {
		return nil, err
	}
	if res.Applicants, err = r.DownloadApplicants(ctx); err != nil {
		return nil, err
	}
	if res.LifeTableYear, err = r.DownloadLifeTables(ctx, latest); err != nil {
		return nil, err
	}
	res.Updated = true

	r.logger.Info("Data refreshed",
		slog.Int("latest_year", latest),
		slog.Int("year_files", res.YearFiles),
		slog.Int("applicant_years", res.Applicants),
		slog.Int("life_table_year", res.LifeTableYear),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// DownloadNames fetches names.zip and extracts its per-year files into the
// names directory. Other archive entries are ignored.
func (r *Refresher) DownloadNames(ctx context.Context) (int, error) {
	body, err := r.client.Get(ctx, NamesZipPath)
	if err != nil {
		return 0, err
	}
	n, err := extractYearFiles(body, r.paths.NamesDir)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to extract names archive", err)
	}
	r.logger.Info("Extracted year files", slog.Int("count", n), slog.String("dir", r.paths.NamesDir))
	return n, nil
}

func extractYearFiles(archive []byte, dest string) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, err
	}

	n := 0
	for _, f := range zr.File {
		// entry names are matched on their base name only, so no entry can
		// escape dest
		name := filepath.Base(f.Name)
		if f.FileInfo().IsDir() || !yearFilePattern.MatchString(name) {
			continue
		}
		if err := extractFile(f, filepath.Join(dest, name)); err != nil {
			return n, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("archive holds no year files")
	}
	return n, nil
}

func extractFile(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return files.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, rc)
		return err
	})
}

// DownloadApplicants fetches the births-per-year table and writes the
// applicant totals file
func (r *Refresher) DownloadApplicants(ctx context.Context) (int, error) {
	body, err := r.client.Get(ctx, ApplicantsPath)
	if err != nil {
		return 0, err
	}
	rows, err := parseApplicants(bytes.NewReader(body))
	if err != nil {
		return 0, apperrors.NewParsingError("failed to read births table", err).WithContext("file", ApplicantsPath)
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = []string{strconv.Itoa(row.Year), strconv.Itoa(row.Number), strconv.Itoa(row.NumberM), strconv.Itoa(row.NumberF)}
	}
	path, err := filepath.Abs(r.paths.ApplicantsFile)
	if err != nil {
		return 0, err
	}
	if err := r.writer.WriteCSV(path, []string{"year", "number", "number_m", "number_f"}, records); err != nil {
		return 0, apperrors.NewStorageError("failed to write applicant totals", err)
	}
	return len(rows), nil
}

// DownloadLifeTables fetches the cohort life tables of both sexes. The
// tables are published with a trustees report one or two years after the
// latest birth year; the newer report is tried first. When neither is
// published yet the existing tables are kept and 0 is returned.
func (r *Refresher) DownloadLifeTables(ctx context.Context, latestYear int) (int, error) {
	for _, tableYear := range []int{latestYear + 2, latestYear + 1} {
		err := r.downloadLifeTables(ctx, tableYear)
		if err == nil {
			return tableYear, nil
		}
		var status *StatusError
		if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
			return 0, err
		}
		r.logger.Info("Life tables not published",
			slog.Int("table_year", tableYear),
			slog.String("url", status.URL))
	}
	r.logger.Warn("No new life tables, keeping existing ones", slog.Int("latest_year", latestYear))
	return 0, nil
}

func (r *Refresher) downloadLifeTables(ctx context.Context, tableYear int) error {
	// both sexes are fetched before anything is written so a missing table
	// never leaves the pair from different reports
	tables := make(map[domain.Sex][]LifeRow, 2)
	for _, sex := range domain.BothSexes {
		path := LifeTablePath(tableYear, sex)
		body, err := r.client.Get(ctx, path)
		if err != nil {
			return err
		}
		rows, err := parseLifeTable(body)
		if err != nil {
			return apperrors.NewParsingError("failed to read life table", err).WithContext("file", path)
		}
		tables[sex] = rows
	}

	for _, sex := range domain.BothSexes {
		records := make([][]string, len(tables[sex]))
		for i, row := range tables[sex] {
			records[i] = []string{strconv.Itoa(row.Year), strconv.Itoa(row.Age), strconv.Itoa(row.Survivors)}
		}
		path, err := filepath.Abs(r.paths.ActuarialFile(string(sex)))
		if err != nil {
			return err
		}
		if err := r.writer.WriteCSV(path, []string{"year", "age", "survivors"}, records); err != nil {
			return apperrors.NewStorageError("failed to write life table", err)
		}
	}
	return nil
}
