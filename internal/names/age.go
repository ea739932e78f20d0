package names

import (
	"math"

	"namefinder/pkg/contracts/domain"
)

// AgeOptions selects the name, sex and band width of an age prediction
type AgeOptions struct {
	Name string
	Sex  domain.Sex
	// MidPercentile is the share of holders the band covers; 0 uses the
	// configured default
	MidPercentile float64
}

// Percentiles returns the bounds of the central band covering mid
func Percentiles(mid float64) (lower, upper float64) {
	lower = 0.5 - mid/2
	return lower, 1 - lower
}

// Cumulative returns the running sum of the shares of rows, which must be in
// year order
func Cumulative(rows []domain.AgeReferenceRow) []float64 {
	cum := make([]float64, len(rows))
	sum := 0.0
	for i, r := range rows {
		sum += r.NumberLivingPct
		cum[i] = sum
	}
	return cum
}

// ClosestYears returns every year whose cumulative share is nearest to target
func ClosestYears(rows []domain.AgeReferenceRow, cum []float64, target float64) []int {
	best := math.Inf(1)
	var years []int
	for i, c := range cum {
		d := math.Abs(target - c)
		switch {
		case d < best:
			best = d
			years = append(years[:0], rows[i].Year)
		case d == best:
			years = append(years, rows[i].Year)
		}
	}
	return years
}

// PredictAge estimates the birth-year band holding the central MidPercentile
// of the living holders of (name, sex). ok is false when the pair has no
// age reference data.
func (e *Engine) PredictAge(opts AgeOptions) (domain.AgePrediction, bool) {
	name := Standardize(opts.Name)
	mid := opts.MidPercentile
	if mid == 0 {
		mid = e.cfg.MidPercentile
	}

	rows := e.ds.AgeReference(name, opts.Sex)
	if len(rows) == 0 {
		return domain.AgePrediction{}, false
	}

	lowerP, upperP := Percentiles(mid)
	cum := Cumulative(rows)
	lowerYear := e.policy.ClosestYear(ClosestYears(rows, cum, lowerP))
	upperYear := e.policy.ClosestYear(ClosestYears(rows, cum, upperP))

	return domain.AgePrediction{
		Name:           name,
		Sex:            opts.Sex,
		MidPercentile:  mid,
		Lower:          domain.PercentileBound{Percentile: lowerP, Year: lowerYear},
		Upper:          domain.PercentileBound{Percentile: upperP, Year: upperYear},
		PercentileBand: upperP - lowerP,
		YearBand:       upperYear - lowerYear,
	}, true
}
