package dataprocessing

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"namefinder/internal/config"
	"namefinder/internal/infrastructure"
	"namefinder/pkg/contracts/domain"
)

// Builder derives the query tables from the raw input data
type Builder struct {
	cfg     config.DatasetConfig
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewBuilder creates a builder
func NewBuilder(cfg config.DatasetConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "builder")),
		metrics: metrics,
	}
}

type nameYear struct {
	name string
	year int
}

// Build runs every stage once and returns the immutable dataset. The raw
// data is not modified.
func (b *Builder) Build(ctx context.Context, raw *RawData) (*Dataset, error) {
	ctx, span := tracer.Start(ctx, "Builder.Build")
	defer span.End()
	start := time.Now()

	d := &Dataset{
		ID:         uuid.NewString(),
		TableYear:  raw.ActuarialTableYear,
		full:       true,
		applicants: slices.Clone(raw.Applicants),
	}
	if len(raw.Years) > 0 {
		d.MinYear = slices.Min(raw.Years)
		d.MaxYear = slices.Max(raw.Years)
	}

	stage := func(name string, fn func()) {
		_, s := tracer.Start(ctx, "Builder."+name)
		t := time.Now()
		fn()
		b.metrics.RecordBuildStage(ctx, name, time.Since(t))
		s.End()
	}

	stage("counts", func() { d.counts = sortCounts(raw.Counts) })
	stage("name_by_year", func() { d.nameByYear = BuildNameByYear(d.counts) })
	stage("peaks", func() { d.peaks = BuildPeaks(d.counts, d.nameByYear, b.cfg.DataQualityCutoff) })
	stage("calculated", func() { d.calculated = BuildCalculated(d.counts, d.nameByYear, raw.Applicants) })
	stage("living", func() { d.living = BuildLiving(d.counts, raw.Actuarial) })
	stage("age_reference", func() {
		d.ageReference, d.livingTotals = BuildAgeReference(d.living, b.cfg.AgeMinLiving)
	})
	stage("index", d.index)

	d.BuiltAt = time.Now()
	sizes := d.TableSizes()
	attrs := make([]any, 0, len(sizes)+2)
	for _, table := range slices.Sorted(maps.Keys(sizes)) {
		b.metrics.RecordTableRows(ctx, table, sizes[table])
		span.SetAttributes(attribute.Int("rows."+table, sizes[table]))
		attrs = append(attrs, slog.Int(table, sizes[table]))
	}
	attrs = append(attrs, slog.String("dataset_id", d.ID), slog.Duration("duration", time.Since(start)))
	b.logger.InfoContext(ctx, "Dataset built", attrs...)

	return d, nil
}

// sortCounts returns a copy of counts ordered by name, sex, year
func sortCounts(counts []domain.CountRecord) []domain.CountRecord {
	sorted := slices.Clone(counts)
	slices.SortFunc(sorted, func(a, b domain.CountRecord) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Sex, b.Sex),
			cmp.Compare(a.Year, b.Year),
		)
	})
	return sorted
}

// BuildNameByYear sums the sexes of every (name, year) and ranks the totals
// within each year. Rows are returned ordered by name then year.
func BuildNameByYear(counts []domain.CountRecord) []domain.NameByYear {
	sums := make(map[nameYear]int)
	for _, c := range counts {
		sums[nameYear{c.Name, c.Year}] += c.Number
	}

	byYear := make(map[int][]domain.NameByYear)
	for k, n := range sums {
		byYear[k.year] = append(byYear[k.year], domain.NameByYear{Name: k.name, Year: k.year, Number: n})
	}

	rows := make([]domain.NameByYear, 0, len(sums))
	for _, yearRows := range byYear {
		rankCompetition(yearRows,
			func(r *domain.NameByYear) int { return r.Number },
			func(r *domain.NameByYear) string { return r.Name },
			func(r *domain.NameByYear, rank int) { r.Rank = rank })
		rows = append(rows, yearRows...)
	}

	slices.SortFunc(rows, func(a, b domain.NameByYear) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Year, b.Year))
	})
	return rows
}

// BuildPeaks finds, for every (name, sex) including the combined sex, the
// years from cutoff on in which it reached its best rank. Every tied year
// is kept. Rows are ordered by name, sex, year.
func BuildPeaks(counts []domain.CountRecord, nameByYear []domain.NameByYear, cutoff int) []domain.PeakRecord {
	best := make(map[NameSex][]domain.PeakRecord)
	consider := func(p domain.PeakRecord) {
		if p.Year < cutoff {
			return
		}
		k := NameSex{p.Name, p.Sex}
		cur := best[k]
		switch {
		case len(cur) == 0 || p.Rank < cur[0].Rank:
			best[k] = []domain.PeakRecord{p}
		case p.Rank == cur[0].Rank:
			best[k] = append(cur, p)
		}
	}

	for _, c := range counts {
		consider(domain.PeakRecord{Name: c.Name, Sex: c.Sex, Year: c.Year, Rank: c.Rank, Number: c.Number})
	}
	for _, r := range nameByYear {
		consider(domain.PeakRecord{Name: r.Name, Sex: domain.SexCombined, Year: r.Year, Rank: r.Rank, Number: r.Number})
	}

	var peaks []domain.PeakRecord
	for _, group := range best {
		peaks = append(peaks, group...)
	}
	slices.SortFunc(peaks, func(a, b domain.PeakRecord) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Sex, b.Sex),
			cmp.Compare(a.Year, b.Year),
		)
	})
	return peaks
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// BuildCalculated joins both sexes of every (name, year) with the combined
// ranking and that year's applicant totals. A sex with no births that year
// has number 0 and rank domain.NoRank. Years without applicant totals are
// dropped. Rows are ordered by name then year.
func BuildCalculated(counts []domain.CountRecord, nameByYear []domain.NameByYear, applicants []domain.ApplicantTotal) []domain.CalculatedRow {
	female := make(map[nameYear]domain.CountRecord)
	male := make(map[nameYear]domain.CountRecord)
	for _, c := range counts {
		switch c.Sex {
		case domain.SexFemale:
			female[nameYear{c.Name, c.Year}] = c
		case domain.SexMale:
			male[nameYear{c.Name, c.Year}] = c
		}
	}
	totals := make(map[int]domain.ApplicantTotal, len(applicants))
	for _, a := range applicants {
		totals[a.Year] = a
	}

	rows := make([]domain.CalculatedRow, 0, len(nameByYear))
	for _, nby := range nameByYear {
		app, ok := totals[nby.Year]
		if !ok {
			continue
		}
		k := nameYear{nby.Name, nby.Year}
		row := domain.CalculatedRow{
			Name:  nby.Name,
			Year:  nby.Year,
			Rank:  nby.Rank,
			RankF: domain.NoRank,
			RankM: domain.NoRank,
		}
		if f, ok := female[k]; ok {
			row.NumberF, row.RankF = f.Number, f.Rank
		}
		if m, ok := male[k]; ok {
			row.NumberM, row.RankM = m.Number, m.Rank
		}
		row.Number = row.NumberF + row.NumberM
		row.NumberPct = share(row.Number, app.Number)
		row.NumberPctF = share(row.NumberF, app.NumberF)
		row.NumberPctM = share(row.NumberM, app.NumberM)
		rows = append(rows, row)
	}
	return rows
}

// BuildLiving weights every count by the survival probability of its birth
// cohort. Counts born before the earliest cohort of the table have no
// survival record and are dropped.
func BuildLiving(counts []domain.CountRecord, actuarial []domain.ActuarialRecord) []domain.LivingRecord {
	type cohort struct {
		sex  domain.Sex
		year int
	}
	prob := make(map[cohort]float64, len(actuarial))
	for _, a := range actuarial {
		prob[cohort{a.Sex, a.BirthYear}] = a.SurvivalProb
	}

	living := make([]domain.LivingRecord, 0, len(counts))
	for _, c := range counts {
		p, ok := prob[cohort{c.Sex, c.Year}]
		if !ok {
			continue
		}
		living = append(living, domain.LivingRecord{
			Name:         c.Name,
			Sex:          c.Sex,
			Year:         c.Year,
			Number:       c.Number,
			NumberLiving: float64(c.Number) * p,
		})
	}
	return living
}

// BuildAgeReference turns living counts into each (name, sex)'s share of
// living holders per birth year. Only pairs whose lifetime living total is
// at least minLiving are kept; their shares sum to 1. Rows are ordered by
// name, sex, year. The lifetime totals of every pair are returned as well,
// ordered by name then sex.
func BuildAgeReference(living []domain.LivingRecord, minLiving float64) ([]domain.AgeReferenceRow, []domain.LivingTotal) {
	type key struct {
		NameSex
		year int
	}
	byYear := make(map[key]float64)
	lifetime := make(map[NameSex]float64)
	for _, l := range living {
		ns := NameSex{l.Name, l.Sex}
		byYear[key{ns, l.Year}] += l.NumberLiving
		lifetime[ns] += l.NumberLiving
	}

	totals := make([]domain.LivingTotal, 0, len(lifetime))
	for ns, total := range lifetime {
		totals = append(totals, domain.LivingTotal{Name: ns.Name, Sex: ns.Sex, NumberLiving: total})
	}
	slices.SortFunc(totals, func(a, b domain.LivingTotal) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Sex, b.Sex))
	})

	var rows []domain.AgeReferenceRow
	for k, n := range byYear {
		total := lifetime[k.NameSex]
		if total < minLiving || total <= 0 {
			continue
		}
		rows = append(rows, domain.AgeReferenceRow{
			Name:            k.Name,
			Sex:             k.Sex,
			Year:            k.year,
			NumberLivingPct: n / total,
		})
	}
	slices.SortFunc(rows, func(a, b domain.AgeReferenceRow) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Sex, b.Sex),
			cmp.Compare(a.Year, b.Year),
		)
	})
	return rows, totals
}
