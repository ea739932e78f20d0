package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namefinder/internal/config"
	"namefinder/internal/infrastructure"
	"namefinder/internal/shared/testutil"
	"namefinder/pkg/contracts/domain"
)

func buildFixture(t *testing.T, fx testutil.DataFixture) *Dataset {
	t.Helper()
	loader, _ := newTestLoader(t, testutil.WriteDataDir(t, fx))
	raw, err := loader.Load(context.Background())
	require.NoError(t, err)

	ds, err := NewBuilder(config.Default().Dataset, nil, infrastructure.NopMetrics()).Build(context.Background(), raw)
	require.NoError(t, err)
	return ds
}

func TestBuild_AnnFixture(t *testing.T) {
	ds := buildFixture(t, testutil.AnnFixture())

	assert.True(t, ds.Full())
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, 1950, ds.MinYear)
	assert.Equal(t, 1960, ds.MaxYear)
	assert.Equal(t, 2020, ds.TableYear)

	assert.Equal(t, []domain.CalculatedRow{
		{Name: "Ann", Year: 1950, Number: 100, NumberF: 100, NumberM: 0, Rank: 1, RankF: 1, RankM: 1,
			NumberPct: 0.1, NumberPctF: 0.2, NumberPctM: 0},
		{Name: "Ann", Year: 1960, Number: 50, NumberF: 50, NumberM: 0, Rank: 1, RankF: 1, RankM: 1,
			NumberPct: 0.025, NumberPctF: 0.05, NumberPctM: 0},
	}, ds.Calculated("Ann"))
	assert.Empty(t, ds.Calculated("Bob"))

	peaks := ds.Peaks("Ann")
	require.Len(t, peaks, 6)
	assert.Equal(t, domain.PeakRecord{Name: "Ann", Sex: domain.SexCombined, Year: 1950, Rank: 1, Number: 100}, peaks[0])
	assert.Equal(t, domain.SexFemale, peaks[2].Sex)
	assert.Equal(t, domain.SexMale, peaks[5].Sex)

	living := ds.Living("Ann")
	require.Len(t, living, 4)
	assert.InDelta(t, 80.0, living[0].NumberLiving, 1e-9)
	assert.InDelta(t, 45.0, living[1].NumberLiving, 1e-9)

	ageRef := ds.AgeReference("Ann", domain.SexFemale)
	require.Len(t, ageRef, 2)
	assert.Equal(t, 1950, ageRef[0].Year)
	assert.InDelta(t, 0.64, ageRef[0].NumberLivingPct, 1e-9)
	assert.InDelta(t, 0.36, ageRef[1].NumberLivingPct, 1e-9)
	// no living male holders at all
	assert.Empty(t, ds.AgeReference("Ann", domain.SexMale))

	totals := ds.LivingTotals()
	require.Len(t, totals, 2)
	assert.InDelta(t, 125.0, totals[0].NumberLiving, 1e-9)
	assert.Equal(t, domain.SexMale, totals[1].Sex)
	assert.Zero(t, totals[1].NumberLiving)
}

func mixedFixture() testutil.DataFixture {
	fx := testutil.AnnFixture()
	fx.Years = map[int]string{
		1930: "Mary,F,500\nJohn,M,600\n",
		1950: "Mary,F,300\nAnn,F,100\nJo,F,100\nJohn,M,400\nJo,M,50\nLee,M,100\n",
		1960: "Mary,F,100\nAnn,F,300\nJohn,M,300\nLee,M,300\n",
	}
	fx.Applicants = "year,number,number_m,number_f\n1930,1100,600,500\n1950,1050,550,500\n"
	return fx
}

func TestBuild_JoinCompleteness(t *testing.T) {
	ds := buildFixture(t, mixedFixture())

	for name, rows := range ds.CalculatedByName() {
		for _, row := range rows {
			assert.Equal(t, row.NumberF+row.NumberM, row.Number, "%s %d", name, row.Year)
			if row.NumberF == 0 {
				assert.Equal(t, domain.NoRank, row.RankF)
			}
			if row.NumberM == 0 {
				assert.Equal(t, domain.NoRank, row.RankM)
			}
		}
	}

	// 1960 has no applicant totals
	for _, row := range ds.Calculated("Lee") {
		assert.NotEqual(t, 1960, row.Year)
	}

	yearTotals := map[int]int{}
	for _, rows := range ds.CalculatedByName() {
		for _, row := range rows {
			yearTotals[row.Year] += row.Number
		}
	}
	assert.Equal(t, map[int]int{1930: 1100, 1950: 1050}, yearTotals)

	jo := ds.Calculated("Jo")
	require.Len(t, jo, 1)
	assert.Equal(t, 150, jo[0].Number)
	assert.Equal(t, 2, jo[0].RankF)
	assert.Equal(t, 3, jo[0].RankM)
	// John 400, Mary 300, then Jo 150
	assert.Equal(t, 3, jo[0].Rank)
}

func TestBuild_CalculatedByNameOrder(t *testing.T) {
	ds := buildFixture(t, mixedFixture())

	var names []string
	for name := range ds.CalculatedByName() {
		names = append(names, name)
		if name == "Jo" {
			break
		}
	}
	assert.Equal(t, []string{"Ann", "Jo"}, names)
}

func TestBuildPeaks(t *testing.T) {
	counts := []domain.CountRecord{
		{Name: "Mary", Sex: domain.SexFemale, Year: 1930, Number: 900, Rank: 1},
		{Name: "Mary", Sex: domain.SexFemale, Year: 1940, Number: 500, Rank: 2},
		{Name: "Mary", Sex: domain.SexFemale, Year: 1950, Number: 400, Rank: 3},
		{Name: "Mary", Sex: domain.SexFemale, Year: 1960, Number: 300, Rank: 2},
	}
	nameByYear := BuildNameByYear(counts)

	peaks := BuildPeaks(counts, nameByYear, 1937)
	var female []domain.PeakRecord
	for _, p := range peaks {
		assert.GreaterOrEqual(t, p.Year, 1937)
		if p.Sex == domain.SexFemale {
			female = append(female, p)
		}
	}
	assert.Equal(t, []domain.PeakRecord{
		{Name: "Mary", Sex: domain.SexFemale, Year: 1940, Rank: 2, Number: 500},
		{Name: "Mary", Sex: domain.SexFemale, Year: 1960, Rank: 2, Number: 300},
	}, female)
}

func TestBuildAgeReference(t *testing.T) {
	living := []domain.LivingRecord{
		{Name: "Ann", Sex: domain.SexFemale, Year: 1990, NumberLiving: 10},
		{Name: "Ann", Sex: domain.SexFemale, Year: 1980, NumberLiving: 25},
		{Name: "Ann", Sex: domain.SexFemale, Year: 1990, NumberLiving: 5},
		{Name: "Rae", Sex: domain.SexFemale, Year: 1990, NumberLiving: 19.5},
	}

	rows, totals := BuildAgeReference(living, 20)

	require.Len(t, rows, 2)
	assert.Equal(t, 1980, rows[0].Year)
	assert.InDelta(t, 0.625, rows[0].NumberLivingPct, 1e-12)
	assert.InDelta(t, 0.375, rows[1].NumberLivingPct, 1e-12)
	assert.InDelta(t, 1.0, rows[0].NumberLivingPct+rows[1].NumberLivingPct, 1e-12)

	assert.Equal(t, []domain.LivingTotal{
		{Name: "Ann", Sex: domain.SexFemale, NumberLiving: 40},
		{Name: "Rae", Sex: domain.SexFemale, NumberLiving: 19.5},
	}, totals)
}

func TestBuild_AgeReferenceSumsToOne(t *testing.T) {
	ds := buildFixture(t, mixedFixture())

	keys := 0
	for key, rows := range ds.AgeReferenceByKey() {
		keys++
		sum := 0.0
		for i, r := range rows {
			sum += r.NumberLivingPct
			if i > 0 {
				assert.Greater(t, r.Year, rows[i-1].Year)
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "%v", key)
	}
	assert.Positive(t, keys)
}

func TestBuild_Idempotent(t *testing.T) {
	fx := mixedFixture()
	first := buildFixture(t, fx)
	second := buildFixture(t, fx)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.AllCounts(), second.AllCounts())
	assert.Equal(t, first.NameByYear(), second.NameByYear())
	assert.Equal(t, first.AllPeaks(), second.AllPeaks())
	assert.Equal(t, first.AllLiving(), second.AllLiving())
	assert.Equal(t, first.AllAgeReference(), second.AllAgeReference())
	assert.Equal(t, first.LivingTotals(), second.LivingTotals())
	for name, rows := range first.CalculatedByName() {
		assert.Equal(t, rows, second.Calculated(name))
	}
}

func TestDataset_ViewsAreClipped(t *testing.T) {
	ds := buildFixture(t, mixedFixture())

	ann := ds.Calculated("Ann")
	require.NotEmpty(t, ann)
	assert.Equal(t, len(ann), cap(ann))

	_ = append(ann, domain.CalculatedRow{Name: "Zed"})
	jo := ds.Calculated("Jo")
	require.NotEmpty(t, jo)
	assert.Equal(t, "Jo", jo[0].Name)
}

func TestNewPredictionDataset(t *testing.T) {
	rows := []domain.AgeReferenceRow{
		{Name: "Ann", Sex: domain.SexFemale, Year: 1950, NumberLivingPct: 0.5},
		{Name: "Bob", Sex: domain.SexMale, Year: 1950, NumberLivingPct: 1},
		{Name: "Ann", Sex: domain.SexFemale, Year: 1960, NumberLivingPct: 0.5},
	}

	ds, err := NewPredictionDataset("artifact", rows)
	require.NoError(t, err)
	assert.False(t, ds.Full())
	assert.Equal(t, 1950, ds.MinYear)
	assert.Equal(t, 1960, ds.MaxYear)
	assert.Len(t, ds.AgeReference("Ann", domain.SexFemale), 2)
	assert.Len(t, ds.AgeReference("Bob", domain.SexMale), 1)
	assert.Empty(t, ds.Calculated("Ann"))

	rows[2].Year = 1940
	_, err = NewPredictionDataset("artifact", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ascending year order")
}
