package dataprocessing

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"time"

	apperrors "namefinder/internal/errors"
	"namefinder/pkg/contracts/domain"
)

// NameSex identifies one name for one sex
type NameSex struct {
	Name string
	Sex  domain.Sex
}

// span is a half-open range of a sorted table
type span struct{ lo, hi int }

// Dataset holds the derived tables of one build. It is never modified after
// construction, so any number of goroutines may read it concurrently.
// Every accessor returns a capacity-clipped view; callers must not write
// through it.
type Dataset struct {
	ID        string
	BuiltAt   time.Time
	TableYear int
	MinYear   int
	MaxYear   int

	full bool

	counts       []domain.CountRecord     // by name, sex, year
	nameByYear   []domain.NameByYear      // by name, year
	peaks        []domain.PeakRecord      // by name, sex, year
	calculated   []domain.CalculatedRow   // by name, year
	living       []domain.LivingRecord    // by name, sex, year
	ageReference []domain.AgeReferenceRow // by name, sex, year
	livingTotals []domain.LivingTotal     // by name, sex
	applicants   []domain.ApplicantTotal  // by year

	countsByName map[string]span
	peaksByName  map[string]span
	calcByName   map[string]span
	livingByName map[string]span
	ageByKey     map[NameSex]span
	names        []string // sorted names of the calculated table
}

func clip[T any](s []T, sp span) []T {
	return s[sp.lo:sp.hi:sp.hi]
}

// indexBy groups a slice sorted by key into spans
func indexBy[T any, K comparable](rows []T, key func(*T) K) map[K]span {
	idx := make(map[K]span)
	for i := 0; i < len(rows); {
		k := key(&rows[i])
		j := i + 1
		for j < len(rows) && key(&rows[j]) == k {
			j++
		}
		idx[k] = span{i, j}
		i = j
	}
	return idx
}

func (d *Dataset) index() {
	d.countsByName = indexBy(d.counts, func(c *domain.CountRecord) string { return c.Name })
	d.peaksByName = indexBy(d.peaks, func(p *domain.PeakRecord) string { return p.Name })
	d.calcByName = indexBy(d.calculated, func(c *domain.CalculatedRow) string { return c.Name })
	d.livingByName = indexBy(d.living, func(l *domain.LivingRecord) string { return l.Name })
	d.ageByKey = indexBy(d.ageReference, func(a *domain.AgeReferenceRow) NameSex { return NameSex{a.Name, a.Sex} })

	d.names = make([]string, 0, len(d.calcByName))
	for name := range d.calcByName {
		d.names = append(d.names, name)
	}
	slices.Sort(d.names)
}

// Full reports whether the dataset was built from the raw files. A
// prediction-only dataset carries the age reference table alone.
func (d *Dataset) Full() bool { return d.full }

// Calculated returns the calculated rows of name in year order
func (d *Dataset) Calculated(name string) []domain.CalculatedRow {
	return clip(d.calculated, d.calcByName[name])
}

// CalculatedByName yields every name of the calculated table in name order
// together with its rows in year order
func (d *Dataset) CalculatedByName() iter.Seq2[string, []domain.CalculatedRow] {
	return func(yield func(string, []domain.CalculatedRow) bool) {
		for _, name := range d.names {
			if !yield(name, clip(d.calculated, d.calcByName[name])) {
				return
			}
		}
	}
}

// Peaks returns the peak records of name ordered by sex then year
func (d *Dataset) Peaks(name string) []domain.PeakRecord {
	return clip(d.peaks, d.peaksByName[name])
}

// AllPeaks returns the whole peaks table
func (d *Dataset) AllPeaks() []domain.PeakRecord {
	return clip(d.peaks, span{0, len(d.peaks)})
}

// Counts returns the raw count rows of name ordered by sex then year
func (d *Dataset) Counts(name string) []domain.CountRecord {
	return clip(d.counts, d.countsByName[name])
}

// AllCounts returns the whole raw count table
func (d *Dataset) AllCounts() []domain.CountRecord {
	return clip(d.counts, span{0, len(d.counts)})
}

// Living returns the survival-weighted rows of name ordered by sex then year
func (d *Dataset) Living(name string) []domain.LivingRecord {
	return clip(d.living, d.livingByName[name])
}

// AllLiving returns the whole raw-with-actuarial table
func (d *Dataset) AllLiving() []domain.LivingRecord {
	return clip(d.living, span{0, len(d.living)})
}

// NameByYear returns the sexes-combined table
func (d *Dataset) NameByYear() []domain.NameByYear {
	return clip(d.nameByYear, span{0, len(d.nameByYear)})
}

// AgeReference returns the age reference rows of (name, sex) in year order
func (d *Dataset) AgeReference(name string, sex domain.Sex) []domain.AgeReferenceRow {
	return clip(d.ageReference, d.ageByKey[NameSex{name, sex}])
}

// AllAgeReference returns the whole age reference table
func (d *Dataset) AllAgeReference() []domain.AgeReferenceRow {
	return clip(d.ageReference, span{0, len(d.ageReference)})
}

// AgeReferenceByKey yields every (name, sex) of the age reference table with
// its rows in year order
func (d *Dataset) AgeReferenceByKey() iter.Seq2[NameSex, []domain.AgeReferenceRow] {
	return func(yield func(NameSex, []domain.AgeReferenceRow) bool) {
		for i := 0; i < len(d.ageReference); {
			a := d.ageReference[i]
			sp := d.ageByKey[NameSex{a.Name, a.Sex}]
			if !yield(NameSex{a.Name, a.Sex}, clip(d.ageReference, sp)) {
				return
			}
			i = sp.hi
		}
	}
}

// LivingTotals returns the lifetime living count of every (name, sex)
func (d *Dataset) LivingTotals() []domain.LivingTotal {
	return clip(d.livingTotals, span{0, len(d.livingTotals)})
}

// Applicants returns the applicant totals in year order
func (d *Dataset) Applicants() []domain.ApplicantTotal {
	return clip(d.applicants, span{0, len(d.applicants)})
}

// TableSizes reports the row count of every table
func (d *Dataset) TableSizes() map[string]int {
	return map[string]int{
		"counts":        len(d.counts),
		"name_by_year":  len(d.nameByYear),
		"peaks":         len(d.peaks),
		"calculated":    len(d.calculated),
		"living":        len(d.living),
		"age_reference": len(d.ageReference),
		"living_totals": len(d.livingTotals),
	}
}

// NewPredictionDataset builds a dataset holding only an age reference table,
// as read back from its artifact. Rows must be in ascending year order
// within each (name, sex); groups may be interleaved.
func NewPredictionDataset(id string, rows []domain.AgeReferenceRow) (*Dataset, error) {
	last := make(map[NameSex]int)
	for i, r := range rows {
		k := NameSex{r.Name, r.Sex}
		if prev, ok := last[k]; ok && r.Year <= prev {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("age reference rows for %s/%s not in ascending year order", r.Name, r.Sex), nil).
				WithContext("line", i+2)
		}
		last[k] = r.Year
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b domain.AgeReferenceRow) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Sex, b.Sex))
	})

	d := &Dataset{ID: id, BuiltAt: time.Now(), ageReference: sorted}
	for i, r := range sorted {
		if i == 0 || r.Year < d.MinYear {
			d.MinYear = r.Year
		}
		d.MaxYear = max(d.MaxYear, r.Year)
	}
	d.index()
	return d, nil
}
