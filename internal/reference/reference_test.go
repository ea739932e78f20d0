package reference

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
	apperrors "namefinder/internal/errors"
	"namefinder/internal/shared/testutil"
	"namefinder/pkg/contracts/domain"
)

func buildDataset(t *testing.T, fx testutil.DataFixture) (*dataprocessing.Dataset, *config.Paths) {
	t.Helper()
	cfg := config.Default().Dataset
	paths := config.NewPaths(testutil.WriteDataDir(t, fx))

	raw, err := dataprocessing.NewLoader(paths, cfg, nil, nil).Load(context.Background())
	require.NoError(t, err)
	ds, err := dataprocessing.NewBuilder(cfg, nil, nil).Build(context.Background(), raw)
	require.NoError(t, err)
	return ds, paths
}

// genderFixture has Pat born male before the cutoff and mixed after it
func genderFixture() testutil.DataFixture {
	fx := testutil.AnnFixture()
	fx.Years = map[int]string{
		1930: "Pat,M,100\n",
		1950: "Pat,F,60\nPat,M,40\nAnn,F,100\nKim,F,10\n",
	}
	fx.Applicants = "year,number,number_m,number_f\n1930,500,250,250\n1950,1000,500,500\n"
	return fx
}

func TestClassify(t *testing.T) {
	lean := GenderOptions{RatioMin: 0.8, NumberMin: 25}

	tests := []struct {
		name string
		f, m int
		opts GenderOptions
		want domain.GenderReferenceRow
	}{
		{"clear female", 90, 10, lean, domain.GenderReferenceRow{Prediction: domain.GenderFemale, FPct: 90, MPct: 10}},
		{"clear male", 20, 80, lean, domain.GenderReferenceRow{Prediction: domain.GenderMale, FPct: 20, MPct: 80}},
		{"weak lean is neutral", 60, 40, lean, domain.GenderReferenceRow{Prediction: domain.GenderNeutral, FPct: 60, MPct: 40}},
		{"weak lean without check", 40, 60, GenderOptions{}, domain.GenderReferenceRow{Prediction: domain.GenderMale, FPct: 40, MPct: 60}},
		{"equal counts", 50, 50, GenderOptions{}, domain.GenderReferenceRow{Prediction: domain.GenderNeutral, FPct: 50, MPct: 50}},
		{"rare under floor", 10, 5, GenderOptions{NumberMin: 1}, domain.GenderReferenceRow{Prediction: domain.GenderRare, FPct: 67, MPct: 33}},
		{"rare under threshold", 80, 20, GenderOptions{NumberMin: 500}, domain.GenderReferenceRow{Prediction: domain.GenderRare, FPct: 80, MPct: 20}},
		{"half rounds to even", 1, 7, GenderOptions{}, domain.GenderReferenceRow{Prediction: domain.GenderRare, FPct: 12, MPct: 88}},
		{"no births", 0, 0, lean, domain.GenderReferenceRow{Prediction: domain.GenderRare}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.f, tt.m, tt.opts))
		})
	}
}

func TestDefaultGenderOptions(t *testing.T) {
	assert.Equal(t, GenderOptions{After: 1937, RatioMin: 0.8, NumberMin: 25}, DefaultGenderOptions(config.Default().Dataset))
	assert.Equal(t, 1937, DefaultGenderOptions(config.DatasetConfig{}).After)
}

func TestBuildGenderReference(t *testing.T) {
	ds, _ := buildDataset(t, genderFixture())

	t.Run("defaults skip early years", func(t *testing.T) {
		got := BuildGenderReference(ds, DefaultGenderOptions(config.Default().Dataset))
		assert.Equal(t, []domain.GenderReferenceRow{
			{Name: "Ann", Prediction: domain.GenderFemale, FPct: 100, MPct: 0},
			{Name: "Kim", Prediction: domain.GenderRare, FPct: 100, MPct: 0},
			{Name: "Pat", Prediction: domain.GenderNeutral, FPct: 60, MPct: 40},
		}, got)
	})

	t.Run("all years", func(t *testing.T) {
		got := NewGenderReference(BuildGenderReference(ds, GenderOptions{NumberMin: 25}))
		assert.Equal(t, domain.GenderReferenceRow{Name: "Pat", Prediction: domain.GenderMale, FPct: 30, MPct: 70}, got["Pat"])
	})

	t.Run("names without births in window are absent", func(t *testing.T) {
		got := BuildGenderReference(ds, GenderOptions{Before: 1940})
		assert.Equal(t, []domain.GenderReferenceRow{
			{Name: "Pat", Prediction: domain.GenderMale, FPct: 0, MPct: 100},
		}, got)
	})
}

func TestPredictGenderBatch(t *testing.T) {
	ref := NewGenderReference([]domain.GenderReferenceRow{
		{Name: "Ann", Prediction: domain.GenderFemale, FPct: 100, MPct: 0},
		{Name: "Renee", Prediction: domain.GenderNeutral, FPct: 55, MPct: 45},
	})

	got := PredictGenderBatch(ref, []GenderItem{
		{ID: "1", Name: "ann"},
		{ID: "2", Name: "  "},
		{ID: "3", Name: "Renée"},
		{ID: "4", Name: "Zzyzx"},
	})

	require.Len(t, got, 3)

	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "ann", got[0].Name)
	assert.Equal(t, "Ann", got[0].MatchedName)
	assert.Equal(t, domain.GenderFemale, got[0].Prediction)
	require.NotNil(t, got[0].FPct)
	assert.Equal(t, 100, *got[0].FPct)
	assert.Equal(t, 0, *got[0].MPct)

	assert.Equal(t, "Renee", got[1].MatchedName)
	assert.Equal(t, domain.GenderNeutral, got[1].Prediction)
	assert.Equal(t, 55, *got[1].FPct)

	assert.Equal(t, "4", got[2].ID)
	assert.Equal(t, domain.GenderUnknown, got[2].Prediction)
	assert.Nil(t, got[2].FPct)
	assert.Nil(t, got[2].MPct)
}

func TestBandFor(t *testing.T) {
	rows := []domain.AgeReferenceRow{
		{Name: "Kim", Sex: domain.SexFemale, Year: 1970, NumberLivingPct: 0.125},
		{Name: "Kim", Sex: domain.SexFemale, Year: 1980, NumberLivingPct: 0.25},
		{Name: "Kim", Sex: domain.SexFemale, Year: 1990, NumberLivingPct: 0.625},
	}

	tests := []struct {
		name   string
		opts   AgeBatchOptions
		want   AgeBand
		wantOK bool
	}{
		{
			// 1970 and 1980 are equally close to the lower percentile
			name:   "ties widen the band",
			opts:   AgeBatchOptions{MidPercentile: 0.5},
			want:   AgeBand{YearLower: 1970, YearUpper: 1990},
			wantOK: true,
		},
		{
			name:   "cutoff drops early years",
			opts:   AgeBatchOptions{Cutoff: 1975, MidPercentile: 0.5},
			want:   AgeBand{YearLower: 1980, YearUpper: 1990},
			wantOK: true,
		},
		{
			name: "nothing after cutoff",
			opts: AgeBatchOptions{Cutoff: 2000, MidPercentile: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BandFor(rows, tt.opts)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredictAgeBatch(t *testing.T) {
	ds, _ := buildDataset(t, testutil.AnnFixture())

	got, errs := PredictAgeBatch(ds, AgeBatchOptions{}, []AgeItem{
		{ID: "a", Name: "ann", Sex: "F"},
		{ID: "b", Name: "ann"},
		{ID: "c", Name: "Ann", Sex: "m"},
		{ID: "d", Name: "Ann", Sex: "x"},
	})

	require.Len(t, got, 3)

	assert.Equal(t, "Ann", got[0].MatchedName)
	assert.Equal(t, domain.SexFemale, got[0].MatchedSex)
	assert.Equal(t, "F", got[0].Sex)
	require.NotNil(t, got[0].YearLower)
	assert.Equal(t, 1950, *got[0].YearLower)
	assert.Equal(t, 1960, *got[0].YearUpper)

	assert.Equal(t, "c", got[1].ID)
	assert.Nil(t, got[1].YearLower)
	assert.Nil(t, got[1].YearUpper)

	assert.Equal(t, "d", got[2].ID)
	assert.Nil(t, got[2].YearLower)
	assert.Equal(t, []string{"`data[3].sex` must be `f` or `m`"}, errs.Messages())
}

func TestStore_RoundTrip(t *testing.T) {
	ds, paths := buildDataset(t, testutil.AnnFixture())
	store := NewStore(paths, nil)

	opts := WriteOptions{Gender: DefaultGenderOptions(config.Default().Dataset), Workbook: true}
	require.NoError(t, store.WriteAll(context.Background(), ds, opts))

	for _, path := range []string{paths.GenderReferenceFile, paths.AgeReferenceFile, paths.TotalLivingFile, paths.ReferenceWorkbook} {
		assert.FileExists(t, path)
	}

	gender, err := store.ReadGenderReference()
	require.NoError(t, err)
	assert.Equal(t, NewGenderReference(BuildGenderReference(ds, opts.Gender)), gender)

	age, err := store.ReadAgeReference()
	require.NoError(t, err)
	assert.Equal(t, ds.AllAgeReference(), age)

	loaded, err := store.LoadPredictionDataset(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded.Full())
	assert.Equal(t, ds.AgeReference("Ann", domain.SexFemale), loaded.AgeReference("Ann", domain.SexFemale))
	assert.Equal(t, 1950, loaded.MinYear)
	assert.Equal(t, 1960, loaded.MaxYear)
}

func writeArtifacts(t *testing.T, gender, age string) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.GeneratedDir, 0755))
	require.NoError(t, os.WriteFile(paths.GenderReferenceFile, []byte(gender), 0644))
	require.NoError(t, os.WriteFile(paths.AgeReferenceFile, []byte(age), 0644))
	return paths
}

func TestStore_LoadErrors(t *testing.T) {
	genderOK := "name,prediction,f_pct,m_pct\nAnn,f,100,0\n"

	tests := []struct {
		name     string
		gender   string
		age      string
		wantType apperrors.ErrorType
		wantMsg  string
	}{
		{
			name:     "years out of order",
			gender:   genderOK,
			age:      "name,sex,year,number_living_pct\nAnn,f,1960,0.36\nAnn,f,1950,0.64\n",
			wantType: apperrors.ErrTypeParsing,
			wantMsg:  "not in ascending year order",
		},
		{
			name:     "bad sex",
			gender:   genderOK,
			age:      "name,sex,year,number_living_pct\nAnn,q,1950,0.64\n",
			wantType: apperrors.ErrTypeParsing,
			wantMsg:  "invalid sex",
		},
		{
			name:     "missing column",
			gender:   genderOK,
			age:      "name,sex,number_living_pct\nAnn,f,0.64\n",
			wantType: apperrors.ErrTypeParsing,
			wantMsg:  "missing columns: year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(writeArtifacts(t, tt.gender, tt.age), nil)
			_, err := store.LoadPredictionDataset(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("missing artifacts", func(t *testing.T) {
		store := NewStore(config.NewPaths(t.TempDir()), nil)
		_, err := store.LoadPredictionDataset(context.Background())
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})

	t.Run("interleaved groups load", func(t *testing.T) {
		age := "name,sex,year,number_living_pct\nAnn,f,1950,0.5\nBo,m,1950,1\nAnn,f,1960,0.5\n"
		store := NewStore(writeArtifacts(t, genderOK, age), nil)
		ds, err := store.LoadPredictionDataset(context.Background())
		require.NoError(t, err)
		assert.Len(t, ds.AgeReference("Ann", domain.SexFemale), 2)
	})
}

func TestStore_ReadGenderReferenceErrors(t *testing.T) {
	age := "name,sex,year,number_living_pct\n"
	paths := writeArtifacts(t, "name,prediction,f_pct,m_pct\nAnn,maybe,100,0\n", age)

	_, err := NewStore(paths, nil).ReadGenderReference()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid prediction "maybe"`)
	assert.Contains(t, err.Error(), filepath.Base(paths.GenderReferenceFile))
}

func TestStore_ReadGenderReferenceMissing(t *testing.T) {
	paths := writeArtifacts(t, "name,prediction,f_pct,m_pct\n", "name,sex,year,number_living_pct\n")
	require.NoError(t, os.Remove(paths.GenderReferenceFile))

	_, err := NewStore(paths, nil).ReadGenderReference()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnavailable))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
