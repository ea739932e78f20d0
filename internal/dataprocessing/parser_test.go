package dataprocessing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "namefinder/internal/errors"
	"namefinder/pkg/contracts/domain"
)

func TestParseYearFile(t *testing.T) {
	input := "name,sex,number\nZoe,F,10\nAmy,F,10\nCat,F,3\nDan,M,7\nEli,m,7\nFay,M,1\nCat,F,2\n"

	records, err := ParseYearFile(strings.NewReader(input), 1990, "yob1990.txt")
	require.NoError(t, err)

	want := []domain.CountRecord{
		{Name: "Amy", Sex: domain.SexFemale, Year: 1990, Number: 10, Rank: 1},
		{Name: "Zoe", Sex: domain.SexFemale, Year: 1990, Number: 10, Rank: 1},
		{Name: "Cat", Sex: domain.SexFemale, Year: 1990, Number: 5, Rank: 3},
		{Name: "Dan", Sex: domain.SexMale, Year: 1990, Number: 7, Rank: 1},
		{Name: "Eli", Sex: domain.SexMale, Year: 1990, Number: 7, Rank: 1},
		{Name: "Fay", Sex: domain.SexMale, Year: 1990, Number: 1, Rank: 3},
	}
	assert.Equal(t, want, records)
}

func TestParseYearFile_FirstRowNamedName(t *testing.T) {
	records, err := ParseYearFile(strings.NewReader("Name,F,10\nAnn,F,5\n"), 1990, "yob1990.txt")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.CountRecord{Name: "Name", Sex: domain.SexFemale, Year: 1990, Number: 10, Rank: 1}, records[0])
}

func TestParseYearFile_Ranking(t *testing.T) {
	input := "A,F,50\nB,F,40\nC,F,40\nD,F,40\nE,F,10\nF,F,10\nG,F,1\n"
	records, err := ParseYearFile(strings.NewReader(input), 2000, "yob2000.txt")
	require.NoError(t, err)

	ranks := make(map[string]int)
	for _, r := range records {
		ranks[r.Name] = r.Rank
	}
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 2, "D": 2, "E": 5, "F": 5, "G": 7}, ranks)

	for _, a := range records {
		for _, b := range records {
			if a.Number == b.Number {
				assert.Equal(t, a.Rank, b.Rank)
			}
			if a.Number > b.Number {
				assert.Less(t, a.Rank, b.Rank)
			}
		}
	}
}

func TestParseYearFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{"invalid sex", "Ann,F,1\nBob,X,2\n", "yob1950.txt:2"},
		{"negative number", "Ann,F,-1\n", "yob1950.txt:1"},
		{"non numeric number", "Ann,F,1\nBob,F,many\n", "yob1950.txt:2"},
		{"too few fields", "Ann,F,1\nBob,M\n", "yob1950.txt:2"},
		{"empty name", "Ann,F,1\n,M,2\n", "yob1950.txt:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYearFile(strings.NewReader(tt.input), 1950, "yob1950.txt")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
			assert.Contains(t, err.Error(), tt.wantLine)
		})
	}
}

func TestParseApplicants(t *testing.T) {
	input := "number_f,year,number,number_m\n600,1960,1000,400\n500,1950,900,400\n"

	totals, err := ParseApplicants(strings.NewReader(input), "data.csv")
	require.NoError(t, err)
	assert.Equal(t, []domain.ApplicantTotal{
		{Year: 1950, Number: 900, NumberF: 500, NumberM: 400},
		{Year: 1960, Number: 1000, NumberF: 600, NumberM: 400},
	}, totals)
}

func TestParseApplicants_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty file", "", "empty file"},
		{"missing column", "year,number,number_m\n1950,1,1\n", "missing columns: number_f"},
		{"duplicate year", "year,number,number_m,number_f\n1950,2,1,1\n1950,2,1,1\n", "duplicate year 1950"},
		{"invalid number", "year,number,number_m,number_f\n1950,x,1,1\n", "invalid number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseApplicants(strings.NewReader(tt.input), "data.csv")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseActuarial(t *testing.T) {
	input := "year,age,survivors,extra\n2010,0,100000,x\n2010,10,99000,x\n2020,0,100000,x\n2020,10,98000,x\n2020,70,80000,x\n"

	tests := []struct {
		name      string
		tableYear int
		wantYear  int
		want      []domain.ActuarialRecord
	}{
		{
			name:      "latest year by default",
			tableYear: 0,
			wantYear:  2020,
			want: []domain.ActuarialRecord{
				{Sex: domain.SexFemale, BirthYear: 1950, SurvivalProb: 0.8},
				{Sex: domain.SexFemale, BirthYear: 2010, SurvivalProb: 0.98},
				{Sex: domain.SexFemale, BirthYear: 2020, SurvivalProb: 1},
			},
		},
		{
			name:      "configured year",
			tableYear: 2010,
			wantYear:  2010,
			want: []domain.ActuarialRecord{
				{Sex: domain.SexFemale, BirthYear: 2000, SurvivalProb: 0.99},
				{Sex: domain.SexFemale, BirthYear: 2010, SurvivalProb: 1},
			},
		},
		{
			name:      "configured year missing falls back to latest",
			tableYear: 2030,
			wantYear:  2020,
		},
		{
			name:      "later tables are projections",
			tableYear: 2015,
			wantYear:  2010,
			want: []domain.ActuarialRecord{
				{Sex: domain.SexFemale, BirthYear: 2000, SurvivalProb: 0.99},
				{Sex: domain.SexFemale, BirthYear: 2010, SurvivalProb: 1},
			},
		},
		{
			name:      "only later tables uses the latest",
			tableYear: 2000,
			wantYear:  2020,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, year, err := ParseActuarial(strings.NewReader(input), domain.SexFemale, tt.tableYear, "f.csv")
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, year)
			if tt.want != nil {
				require.Len(t, records, len(tt.want))
				for i := range tt.want {
					assert.Equal(t, tt.want[i].BirthYear, records[i].BirthYear)
					assert.InDelta(t, tt.want[i].SurvivalProb, records[i].SurvivalProb, 1e-12)
				}
			}
		})
	}
}

func TestParseActuarial_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"survivors above radix", "year,age,survivors\n2020,1,100001\n", "outside"},
		{"negative survivors", "year,age,survivors\n2020,1,-5\n", "outside"},
		{"no rows", "year,age,survivors\n", "no survival rows"},
		{"missing age", "year,survivors\n2020,1\n", "missing columns: age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseActuarial(strings.NewReader(tt.input), domain.SexMale, 0, "m.csv")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
