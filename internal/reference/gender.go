package reference

import (
	"math"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	"namefinder/pkg/contracts/domain"
)

// GenderOptions controls how the gender reference classifies names
type GenderOptions struct {
	// After and Before bound the birth years summed; zero leaves a side open
	After  int `json:"after,omitempty"`
	Before int `json:"before,omitempty"`
	// RatioMin is the share one sex needs for a name not to be neutral.
	// Zero disables the lean check.
	RatioMin float64 `json:"ratio_min"`
	// NumberMin is the birth count below which a name is rare. It is never
	// taken below config.DefaultGenderMinCount.
	NumberMin int `json:"number_min"`
}

// DefaultGenderOptions returns the options of the persisted reference
func DefaultGenderOptions(cfg config.DatasetConfig) GenderOptions {
	opts := GenderOptions{
		After:     cfg.DataQualityCutoff,
		RatioMin:  cfg.GenderLeanMin,
		NumberMin: cfg.GenderMinCount,
	}
	if opts.After == 0 {
		opts.After = config.DataQualityBestAfter
	}
	return opts
}

// GenderReference maps a standardized name to its classification
type GenderReference map[string]domain.GenderReferenceRow

// NewGenderReference indexes rows by name
func NewGenderReference(rows []domain.GenderReferenceRow) GenderReference {
	ref := make(GenderReference, len(rows))
	for _, r := range rows {
		ref[r.Name] = r
	}
	return ref
}

// Classify returns the class of a name with f female and m male births
func Classify(f, m int, opts GenderOptions) domain.GenderReferenceRow {
	n := f + m
	var ratioF, ratioM float64
	if n > 0 {
		ratioF = float64(f) / float64(n)
		ratioM = float64(m) / float64(n)
	}

	row := domain.GenderReferenceRow{
		FPct: int(math.RoundToEven(ratioF * 100)),
		MPct: int(math.RoundToEven(ratioM * 100)),
	}
	switch {
	case f > m:
		row.Prediction = domain.GenderFemale
	case f < m:
		row.Prediction = domain.GenderMale
	default:
		row.Prediction = domain.GenderNeutral
	}
	if opts.RatioMin > 0 && ratioF < opts.RatioMin && ratioM < opts.RatioMin {
		row.Prediction = domain.GenderNeutral
	}
	if n < max(opts.NumberMin, config.DefaultGenderMinCount) {
		row.Prediction = domain.GenderRare
	}
	return row
}

// BuildGenderReference classifies every name with births inside the
// selected years. Rows come out in name order.
func BuildGenderReference(ds *dataprocessing.Dataset, opts GenderOptions) []domain.GenderReferenceRow {
	var rows []domain.GenderReferenceRow
	for name, calc := range ds.CalculatedByName() {
		f, m, seen := 0, 0, false
		for _, r := range calc {
			if opts.After != 0 && r.Year < opts.After {
				continue
			}
			if opts.Before != 0 && r.Year > opts.Before {
				continue
			}
			f += r.NumberF
			m += r.NumberM
			seen = true
		}
		if !seen {
			continue
		}
		row := Classify(f, m, opts)
		row.Name = name
		rows = append(rows, row)
	}
	return rows
}
