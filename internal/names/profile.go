package names

import (
	"slices"

	"namefinder/pkg/contracts/domain"
)

// ProfileOptions selects the name and years of a profile
type ProfileOptions struct {
	Name string
	Years
}

func snapshot(r domain.CalculatedRow) domain.YearSnapshot {
	return domain.YearSnapshot{
		Year:   r.Year,
		Number: domain.SexCounts{Total: r.Number, F: r.NumberF, M: r.NumberM},
		Rank:   domain.SexRanks{Total: r.Rank, F: r.RankF, M: r.RankM},
	}
}

// Profile summarizes the popularity of one name over the selected years.
// Earliest and latest describe the whole history of the name whatever the
// selection. ok is false when the name is unknown or has no births in the
// selected years.
func (e *Engine) Profile(opts ProfileOptions) (profile domain.NameProfile, ok bool) {
	name := Standardize(opts.Name)
	rows := e.ds.Calculated(name)
	if len(rows) == 0 {
		return domain.NameProfile{}, false
	}

	var selected *domain.YearSnapshot
	var total domain.SexCounts
	matched := false
	for _, r := range rows {
		if opts.Year != 0 && r.Year == opts.Year {
			s := snapshot(r)
			selected = &s
		}
		if !opts.Contains(r.Year) {
			continue
		}
		matched = true
		total.Total += r.Number
		total.F += r.NumberF
		total.M += r.NumberM
	}
	if !matched {
		return domain.NameProfile{}, false
	}

	return domain.NameProfile{
		Name:    name,
		After:   opts.After,
		Before:  opts.Before,
		Year:    opts.Year,
		Numbers: total,
		Ratios: domain.SexRatios{
			F: round(ratio(total.F, total.Total), 3),
			M: round(ratio(total.M, total.Total), 3),
		},
		Peaks:        slices.Clone(e.ds.Peaks(name)),
		Earliest:     snapshot(rows[0]),
		Latest:       snapshot(rows[len(rows)-1]),
		SelectedYear: selected,
	}, true
}
