package reference

import (
	"fmt"
	"slices"
	"strings"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/names"
	"namefinder/pkg/contracts/domain"
)

// GenderItem is one input of a batch gender prediction
type GenderItem struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// AgeItem is one input of a batch age prediction
type AgeItem struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Sex  string `json:"sex"`
}

// PredictGenderBatch looks every item up in ref. Items without a name are
// dropped; names missing from ref are reported as unknown.
func PredictGenderBatch(ref GenderReference, items []GenderItem) []domain.GenderBatchResult {
	results := make([]domain.GenderBatchResult, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		res := domain.GenderBatchResult{
			ID:          item.ID,
			Name:        item.Name,
			MatchedName: names.Standardize(item.Name),
			Prediction:  domain.GenderUnknown,
		}
		if row, ok := ref[res.MatchedName]; ok {
			fPct, mPct := row.FPct, row.MPct
			res.Prediction = row.Prediction
			res.FPct, res.MPct = &fPct, &mPct
		}
		results = append(results, res)
	}
	return results
}

// AgeBand is the birth-year range of a batch age prediction
type AgeBand struct {
	YearLower int `json:"year_lower"`
	YearUpper int `json:"year_upper"`
}

// AgeBatchOptions controls the bands of a batch age prediction
type AgeBatchOptions struct {
	// Cutoff drops age reference years before it; zero uses the data
	// quality cutoff
	Cutoff        int
	MidPercentile float64
}

func (o AgeBatchOptions) withDefaults() AgeBatchOptions {
	if o.Cutoff == 0 {
		o.Cutoff = config.DataQualityBestAfter
	}
	if o.MidPercentile == 0 {
		o.MidPercentile = config.DefaultMidPercentile
	}
	return o
}

// BandFor computes the band of one (name, sex) from its year-ordered age
// reference rows. Shares are accumulated from the cutoff year on without
// rescaling. Every year closest to either percentile counts, and the band
// spans the earliest to the latest of them.
func BandFor(rows []domain.AgeReferenceRow, opts AgeBatchOptions) (AgeBand, bool) {
	opts = opts.withDefaults()
	start, _ := slices.BinarySearchFunc(rows, opts.Cutoff, func(r domain.AgeReferenceRow, year int) int {
		return r.Year - year
	})
	rows = rows[start:]
	if len(rows) == 0 {
		return AgeBand{}, false
	}

	lowerP, upperP := names.Percentiles(opts.MidPercentile)
	cum := names.Cumulative(rows)
	years := append(names.ClosestYears(rows, cum, lowerP), names.ClosestYears(rows, cum, upperP)...)
	return AgeBand{YearLower: slices.Min(years), YearUpper: slices.Max(years)}, true
}

// PredictAgeBatch estimates a birth-year band for every item. Items missing
// a name or a sex are dropped. An item with an invalid sex stays in the
// results without a band and is reported in the returned errors.
func PredictAgeBatch(ds *dataprocessing.Dataset, opts AgeBatchOptions, items []AgeItem) ([]domain.AgeBatchResult, apperrors.ValidationErrors) {
	var errs apperrors.ValidationErrors
	results := make([]domain.AgeBatchResult, 0, len(items))

	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Sex) == "" {
			continue
		}
		res := domain.AgeBatchResult{
			ID:          item.ID,
			Name:        item.Name,
			Sex:         item.Sex,
			MatchedName: names.Standardize(item.Name),
			MatchedSex:  domain.Sex(strings.ToLower(strings.TrimSpace(item.Sex))),
		}
		if !res.MatchedSex.Valid() {
			errs.Add(fmt.Sprintf("data[%d].sex", i), "must be `f` or `m`")
			results = append(results, res)
			continue
		}
		if band, ok := BandFor(ds.AgeReference(res.MatchedName, res.MatchedSex), opts); ok {
			res.YearLower, res.YearUpper = &band.YearLower, &band.YearUpper
		}
		results = append(results, res)
	}
	return results, errs
}
