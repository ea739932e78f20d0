package names

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/shared/testutil"
	"namefinder/pkg/contracts/domain"
)

func newTestEngine(t *testing.T, fx testutil.DataFixture) *Engine {
	t.Helper()
	cfg := config.Default().Dataset
	dataDir := testutil.WriteDataDir(t, fx)

	raw, err := dataprocessing.NewLoader(config.NewPaths(dataDir), cfg, nil, nil).Load(context.Background())
	require.NoError(t, err)
	ds, err := dataprocessing.NewBuilder(cfg, nil, nil).Build(context.Background(), raw)
	require.NoError(t, err)
	return NewEngine(ds, cfg, Policy{})
}

// searchFixture has names of both sexes over three years, including the
// placeholder Baby
func searchFixture() testutil.DataFixture {
	fx := testutil.AnnFixture()
	fx.Years = map[int]string{
		1940: "Mary,F,500\nAnna,F,80\nBaby,F,900\nJohn,M,600\nJordan,M,40\nJordan,F,60\n",
		1950: "Mary,F,300\nAnn,F,100\nAnna,F,120\nJohn,M,400\nLee,M,100\nLeann,F,30\n",
		1960: "Mary,F,100\nJohn,M,300\n",
	}
	fx.Applicants = "year,number,number_m,number_f\n1940,3000,1500,1500\n1950,3000,1500,1500\n1960,3000,1500,1500\n"
	return fx
}

func TestStandardize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ann", "Ann"},
		{"ANN", "Ann"},
		{"  José-luis ", "Joseluis"},
		{"Zoë", "Zoe"},
		{"ñandú", "Nandu"},
		{"Ç", "C"},
		{"o'brien2", "Obrien"},
		{"Łukasz", "Lukasz"},
		{"Søren", "Soren"},
		{"straße", "Strasse"},
		{"Æsa", "Aesa"},
		{"Đorđe", "Dorde"},
		{"123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Standardize(tt.in))
		})
	}
}

func TestYears_Contains(t *testing.T) {
	assert.True(t, Years{}.Contains(1900))
	assert.True(t, Years{After: 1950, Before: 1960}.Contains(1950))
	assert.True(t, Years{After: 1950, Before: 1960}.Contains(1960))
	assert.False(t, Years{After: 1950, Before: 1960}.Contains(1961))
	assert.False(t, Years{After: 1950}.Contains(1949))
	// an exact year wins over the range
	assert.True(t, Years{After: 1950, Before: 1960, Year: 1970}.Contains(1970))
	assert.False(t, Years{After: 1950, Before: 1960, Year: 1970}.Contains(1955))
}

func TestProfile_AnnFixture(t *testing.T) {
	e := newTestEngine(t, testutil.AnnFixture())

	p, ok := e.Profile(ProfileOptions{Name: "ann", Years: Years{After: 1950, Before: 1960}})
	require.True(t, ok)

	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, domain.SexCounts{Total: 150, F: 150, M: 0}, p.Numbers)
	assert.Equal(t, domain.SexRatios{F: 1.0, M: 0.0}, p.Ratios)
	assert.Equal(t, 1950, p.Earliest.Year)
	assert.Equal(t, 1960, p.Latest.Year)
	assert.Equal(t, 1950, p.After)
	assert.Equal(t, 1960, p.Before)
	assert.Nil(t, p.SelectedYear)
	assert.Len(t, p.Peaks, 6)
}

func TestProfile(t *testing.T) {
	e := newTestEngine(t, searchFixture())

	t.Run("selected year", func(t *testing.T) {
		p, ok := e.Profile(ProfileOptions{Name: "Jordan", Years: Years{Year: 1940}})
		require.True(t, ok)
		require.NotNil(t, p.SelectedYear)
		assert.Equal(t, domain.SexCounts{Total: 100, F: 60, M: 40}, p.SelectedYear.Number)
		assert.Equal(t, domain.SexRatios{F: 0.6, M: 0.4}, p.Ratios)
	})

	t.Run("earliest and latest ignore the filter", func(t *testing.T) {
		p, ok := e.Profile(ProfileOptions{Name: "mary", Years: Years{Year: 1950}})
		require.True(t, ok)
		assert.Equal(t, 300, p.Numbers.Total)
		assert.Equal(t, 1940, p.Earliest.Year)
		assert.Equal(t, 1960, p.Latest.Year)
		assert.Equal(t, domain.NoRank, p.Latest.Rank.M)
	})

	t.Run("ratios rounded", func(t *testing.T) {
		p, ok := e.Profile(ProfileOptions{Name: "Leann"})
		require.True(t, ok)
		assert.Equal(t, 1.0, p.Ratios.F)
	})

	tests := []struct {
		name string
		opts ProfileOptions
	}{
		{"unknown name", ProfileOptions{Name: "Zzyzx"}},
		{"no letters", ProfileOptions{Name: "42"}},
		{"no rows in range", ProfileOptions{Name: "Ann", Years: Years{After: 1951}}},
		{"year absent", ProfileOptions{Name: "Ann", Years: Years{Year: 1940}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := e.Profile(tt.opts)
			assert.False(t, ok)
			assert.Equal(t, domain.NameProfile{}, p)
		})
	}
}

func searchNames(rows []domain.SearchRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestSearch_AnnFixture(t *testing.T) {
	e := newTestEngine(t, testutil.AnnFixture())

	rows, err := e.Search(SearchOptions{Start: []string{"an"}, NumberMin: 100})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0].Name)
	assert.Equal(t, 150, rows[0].Number)
}

func TestSearch(t *testing.T) {
	e := newTestEngine(t, searchFixture())

	tests := []struct {
		name string
		opts SearchOptions
		want []string
	}{
		{"everything but placeholders", SearchOptions{}, []string{"John", "Mary", "Anna", "Ann", "Jordan", "Lee", "Leann"}},
		{"top", SearchOptions{Top: 2}, []string{"John", "Mary"}},
		{"unlimited", SearchOptions{Top: -1, NumberMax: 100}, []string{"Ann", "Jordan", "Lee", "Leann"}},
		{"number bounds", SearchOptions{NumberMin: 100, NumberMax: 200}, []string{"Anna", "Ann", "Jordan", "Lee"}},
		{"length bounds", SearchOptions{LengthMin: 4, LengthMax: 4}, []string{"John", "Mary", "Anna"}},
		{"prefix any", SearchOptions{Start: []string{"AN", "le"}}, []string{"Anna", "Ann", "Lee", "Leann"}},
		{"suffix", SearchOptions{End: []string{"n"}}, []string{"John", "Ann", "Jordan", "Leann"}},
		{"contains all", SearchOptions{Contains: []string{"an", "n"}}, []string{"Anna", "Ann", "Jordan", "Leann"}},
		{"contains any", SearchOptions{ContainsAny: []string{"ry", "ee"}}, []string{"Mary", "Lee"}},
		{"ordered tokens", SearchOptions{Order: []string{"l", "a", "n"}}, []string{"Leann"}},
		{"ordered tokens must not overlap", SearchOptions{Order: []string{"nn", "n"}}, []string{}},
		{"not start", SearchOptions{NotStart: []string{"j", "a"}}, []string{"Mary", "Lee", "Leann"}},
		{"not end", SearchOptions{NotEnd: []string{"n", "a"}}, []string{"Mary", "Lee"}},
		{"not contains", SearchOptions{NotContains: []string{"a"}}, []string{"John", "Lee"}},
		{"pattern is case insensitive", SearchOptions{Pattern: "^J.*N$"}, []string{"John", "Jordan"}},
		{"male share bounds inclusive", SearchOptions{Gender: &RatioBounds{Min: 0.4, Max: 1}}, []string{"John", "Jordan", "Lee"}},
		{"exact year", SearchOptions{Years: Years{Year: 1940}}, []string{"John", "Mary", "Jordan", "Anna"}},
		{"year range", SearchOptions{Years: Years{After: 1950, Before: 1950}, NumberMin: 110}, []string{"John", "Mary", "Anna"}},
		{"sort by female count", SearchOptions{SortSex: domain.SexFemale, Top: 3}, []string{"Mary", "Anna", "Ann"}},
		{"peaked intersection", SearchOptions{Peaked: map[string]bool{"Leann": true, "Lee": true}}, []string{"Lee", "Leann"}},
		{"empty peaked set", SearchOptions{Peaked: map[string]bool{}}, []string{}},
		{"no match", SearchOptions{Start: []string{"x"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := e.Search(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, searchNames(rows))
		})
	}
}

func TestSearch_RanksOnlyForExactYear(t *testing.T) {
	e := newTestEngine(t, searchFixture())

	rows, err := e.Search(SearchOptions{Years: Years{Year: 1940}, Start: []string{"jordan"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.SearchRow{
		Name: "Jordan", Number: 100, NumberF: 60, NumberM: 40, RatioF: 0.6, RatioM: 0.4,
		Rank: 4, RankF: 4, RankM: 2,
	}, rows[0])

	rows, err = e.Search(SearchOptions{Start: []string{"jordan"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Rank)
}

func TestSearch_InvalidOptions(t *testing.T) {
	e := newTestEngine(t, searchFixture())

	_, err := e.Search(SearchOptions{Pattern: "(", SortSex: "x", Gender: &RatioBounds{Min: 1, Max: 0}})
	require.Error(t, err)

	var verrs apperrors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
	assert.Equal(t, "pattern", verrs[0].Field)
	assert.Equal(t, "`sort_sex` must be `f` or `m`", verrs[1].String())
}

func TestPredictGender(t *testing.T) {
	e := newTestEngine(t, testutil.AnnFixture())

	t.Run("raw counts", func(t *testing.T) {
		got := e.PredictGender(GenderOptions{Name: "Ann", Years: Years{After: 1950, Before: 1960}})
		assert.Equal(t, domain.SexFemale, got.Prediction)
		require.NotNil(t, got.Confidence)
		assert.Equal(t, 1.0, *got.Confidence)
		assert.Equal(t, 150, got.Number)
		assert.Equal(t, 1950, got.After)
		assert.False(t, got.Living)
	})

	t.Run("living counts", func(t *testing.T) {
		got := e.PredictGender(GenderOptions{Name: "ann", Living: true})
		assert.Equal(t, "Ann", got.Name)
		assert.True(t, got.Living)
		assert.Equal(t, 125, got.Number)
		assert.Equal(t, domain.SexFemale, got.Prediction)
	})

	t.Run("year echo replaces range", func(t *testing.T) {
		got := e.PredictGender(GenderOptions{Name: "Ann", Years: Years{After: 1900, Year: 1960}})
		assert.Equal(t, 1960, got.Year)
		assert.Zero(t, got.After)
		assert.Equal(t, 50, got.Number)
	})

	t.Run("no births", func(t *testing.T) {
		got := e.PredictGender(GenderOptions{Name: "Bob", Living: true})
		assert.Equal(t, domain.GenderPrediction{Name: "Bob", Living: true}, got)
	})
}

func TestPredictGender_ConfidenceAndTies(t *testing.T) {
	fx := searchFixture()
	fx.Years[1950] += "Sam,F,50\nSam,M,50\n"
	e := newTestEngine(t, fx)

	got := e.PredictGender(GenderOptions{Name: "Jordan"})
	assert.Equal(t, domain.SexFemale, got.Prediction)
	assert.Equal(t, 0.6, *got.Confidence)

	tie := e.PredictGender(GenderOptions{Name: "Sam"})
	assert.Equal(t, domain.SexMale, tie.Prediction)
	assert.Equal(t, 0.5, *tie.Confidence)

	femaleOnTie := NewEngine(e.Dataset(), config.Default().Dataset, Policy{
		GenderTieBreak: func(f, m float64) domain.Sex {
			if f >= m {
				return domain.SexFemale
			}
			return domain.SexMale
		},
	})
	assert.Equal(t, domain.SexFemale, femaleOnTie.PredictGender(GenderOptions{Name: "Sam"}).Prediction)
}

func TestPredictAge_AnnFixture(t *testing.T) {
	e := newTestEngine(t, testutil.AnnFixture())

	got, ok := e.PredictAge(AgeOptions{Name: "ann", Sex: domain.SexFemale})
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, 0.68, got.MidPercentile)
	assert.InDelta(t, 0.16, got.Lower.Percentile, 1e-9)
	assert.InDelta(t, 0.84, got.Upper.Percentile, 1e-9)
	assert.Equal(t, 1950, got.Lower.Year)
	assert.Equal(t, 1960, got.Upper.Year)
	assert.InDelta(t, 0.68, got.PercentileBand, 1e-9)
	assert.Equal(t, 10, got.YearBand)

	_, ok = e.PredictAge(AgeOptions{Name: "ann", Sex: domain.SexMale})
	assert.False(t, ok)
}

func predictionEngine(t *testing.T, rows []domain.AgeReferenceRow, policy Policy) *Engine {
	t.Helper()
	ds, err := dataprocessing.NewPredictionDataset("test", rows)
	require.NoError(t, err)
	return NewEngine(ds, config.Default().Dataset, policy)
}

func TestPredictAge_Ties(t *testing.T) {
	rows := []domain.AgeReferenceRow{
		{Name: "Kim", Sex: domain.SexFemale, Year: 1970, NumberLivingPct: 0.125},
		{Name: "Kim", Sex: domain.SexFemale, Year: 1980, NumberLivingPct: 0.25},
		{Name: "Kim", Sex: domain.SexFemale, Year: 1990, NumberLivingPct: 0.625},
	}

	// lower percentile 0.25 is equally close to 0.125 and 0.375
	got, ok := predictionEngine(t, rows, Policy{}).PredictAge(AgeOptions{Name: "Kim", Sex: domain.SexFemale, MidPercentile: 0.5})
	require.True(t, ok)
	assert.Equal(t, 1970, got.Lower.Year)
	assert.Equal(t, 1990, got.Upper.Year)

	latest := Policy{ClosestYear: func(c []int) int { return c[len(c)-1] }}
	got, ok = predictionEngine(t, rows, latest).PredictAge(AgeOptions{Name: "Kim", Sex: domain.SexFemale, MidPercentile: 0.5})
	require.True(t, ok)
	assert.Equal(t, 1980, got.Lower.Year)
	assert.Equal(t, 10, got.YearBand)
}

func TestPredictAge_SingleYear(t *testing.T) {
	e := predictionEngine(t, []domain.AgeReferenceRow{
		{Name: "Neo", Sex: domain.SexMale, Year: 2001, NumberLivingPct: 1},
	}, Policy{})

	got, ok := e.PredictAge(AgeOptions{Name: "neo", Sex: domain.SexMale, MidPercentile: 0.9})
	require.True(t, ok)
	assert.Equal(t, 2001, got.Lower.Year)
	assert.Equal(t, 2001, got.Upper.Year)
	assert.Zero(t, got.YearBand)
}

func TestPercentiles(t *testing.T) {
	for _, mid := range []float64{0.01, 0.25, 0.5, 0.68, 0.9, 0.99} {
		lower, upper := Percentiles(mid)
		assert.InDelta(t, 1.0, lower+upper, 1e-12)
		assert.InDelta(t, mid, upper-lower, 1e-12)
	}
}

func TestFilterPeaks(t *testing.T) {
	e := newTestEngine(t, searchFixture())

	peaks := e.FilterPeaks(PeakFilter{RankMax: 1})
	for _, p := range peaks {
		assert.Equal(t, domain.SexCombined, p.Sex)
		assert.Equal(t, 1, p.Rank)
	}
	assert.Equal(t, map[string]bool{"Baby": true, "John": true}, PeakedNames(peaks))

	female := e.FilterPeaks(PeakFilter{Sex: domain.SexFemale, Year: 1950})
	assert.Equal(t, map[string]bool{"Ann": true, "Anna": true, "Leann": true, "Mary": true}, PeakedNames(female))

	counts := e.FilterCounts(PeakFilter{After: 1950, Sex: domain.SexMale, RankMin: 2})
	require.Len(t, counts, 1)
	assert.Equal(t, "Lee", counts[0].Name)
}

func TestDisplayString(t *testing.T) {
	tests := []struct {
		row  domain.SearchRow
		want string
	}{
		{domain.SearchRow{Name: "Ann", Number: 1234, RatioF: 1, RatioM: 0}, "Ann (n=1,234; f=100%)"},
		{domain.SearchRow{Name: "Jordan", Number: 100, RatioF: 0.404, RatioM: 0.596}, "Jordan (n=100; m=60%)"},
		{domain.SearchRow{Name: "Sam", Number: 2, RatioF: 0.5, RatioM: 0.5}, "Sam (n=2; no lean)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayString(tt.row))
	}
}
