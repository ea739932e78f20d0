package names

import "namefinder/pkg/contracts/domain"

// PeakFilter selects peak or raw count rows. Unlike Years, After, Before
// and Year all apply together. Zero values are unset.
type PeakFilter struct {
	After   int
	Before  int
	Year    int
	Sex     domain.Sex
	RankMin int
	RankMax int
}

func (f PeakFilter) keep(year, rank int, sex domain.Sex) bool {
	switch {
	case f.After != 0 && year < f.After,
		f.Before != 0 && year > f.Before,
		f.Year != 0 && year != f.Year,
		f.Sex != "" && sex != f.Sex,
		f.RankMin != 0 && rank < f.RankMin,
		f.RankMax != 0 && rank > f.RankMax:
		return false
	}
	return true
}

// FilterPeaks returns the peak records passing f. The sex defaults to the
// combined sex.
func (e *Engine) FilterPeaks(f PeakFilter) []domain.PeakRecord {
	if f.Sex == "" {
		f.Sex = domain.SexCombined
	}
	var out []domain.PeakRecord
	for _, p := range e.ds.AllPeaks() {
		if f.keep(p.Year, p.Rank, p.Sex) {
			out = append(out, p)
		}
	}
	return out
}

// FilterCounts returns the raw count rows passing f
func (e *Engine) FilterCounts(f PeakFilter) []domain.CountRecord {
	var out []domain.CountRecord
	for _, c := range e.ds.AllCounts() {
		if f.keep(c.Year, c.Rank, c.Sex) {
			out = append(out, c)
		}
	}
	return out
}

// PeakedNames returns the set of names among peaks, for SearchOptions.Peaked
func PeakedNames(peaks []domain.PeakRecord) map[string]bool {
	set := make(map[string]bool, len(peaks))
	for _, p := range peaks {
		set[p.Name] = true
	}
	return set
}
