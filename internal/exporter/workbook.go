package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"namefinder/internal/files"
	"namefinder/pkg/contracts/domain"
)

// Sheet is one worksheet of an exported workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// WriteWorkbook writes sheets to an XLSX workbook, replacing path atomically
func (w *CSVWriter) WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook needs at least one sheet")
	}
	fullPath := w.resolvePath(path)

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	w.logger.Info("Writing workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(sheets)))

	return files.WriteAtomic(fullPath, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	sw, err := f.NewStreamWriter(sheet.Name)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", sheet.Name, err)
	}

	row := 1
	if len(sheet.Headers) > 0 {
		headers := make([]any, len(sheet.Headers))
		for i, h := range sheet.Headers {
			headers[i] = h
		}
		if err := sw.SetRow("A1", headers); err != nil {
			return fmt.Errorf("failed to write headers of %s: %w", sheet.Name, err)
		}
		row++
	}
	for _, values := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", row, sheet.Name, err)
		}
		row++
	}
	return sw.Flush()
}

// GenderReferenceSheet lays out gender reference rows as a worksheet
func GenderReferenceSheet(rows []domain.GenderReferenceRow) Sheet {
	s := Sheet{Name: "gender", Headers: GenderReferenceHeaders, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		s.Rows[i] = []any{r.Name, string(r.Prediction), r.FPct, r.MPct}
	}
	return s
}

// AgeReferenceSheet lays out age reference rows as a worksheet
func AgeReferenceSheet(rows []domain.AgeReferenceRow) Sheet {
	s := Sheet{Name: "age", Headers: AgeReferenceHeaders, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		s.Rows[i] = []any{r.Name, string(r.Sex), r.Year, r.NumberLivingPct}
	}
	return s
}

// LivingTotalSheet lays out lifetime living totals as a worksheet
func LivingTotalSheet(rows []domain.LivingTotal) Sheet {
	s := Sheet{Name: "total_number_living", Headers: LivingTotalHeaders, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		s.Rows[i] = []any{r.Name, string(r.Sex), r.NumberLiving}
	}
	return s
}
