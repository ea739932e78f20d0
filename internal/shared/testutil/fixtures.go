package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// DataFixture describes the raw input files of a data directory
type DataFixture struct {
	// Years maps a year to the content of its yobYYYY.txt file
	Years      map[int]string
	Applicants string
	ActuarialF string
	ActuarialM string
}

// AnnFixture is the two-year fixture used across the package tests:
// Ann is born 100 times in 1950 and 50 times in 1960, always female.
// The survival table year is 2020, so 80% of the 1950 cohort and 90% of the
// 1960 cohort are alive.
func AnnFixture() DataFixture {
	life := "year,age,survivors\n2020,60,90000\n2020,70,80000\n2010,60,95000\n"
	return DataFixture{
		Years: map[int]string{
			1950: "Ann,F,100\nAnn,M,0\n",
			1960: "Ann,F,50\nAnn,M,0\n",
		},
		Applicants: "year,number,number_m,number_f\n1950,1000,500,500\n1960,2000,1000,1000\n",
		ActuarialF: life,
		ActuarialM: life,
	}
}

// WriteDataDir writes the fixture into a fresh temporary data directory
// laid out as names/, actuarial/ and applicants/ and returns its path.
// Empty fields are not written.
func WriteDataDir(t *testing.T, fx DataFixture) string {
	t.Helper()
	dir := t.TempDir()

	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	for year, content := range fx.Years {
		write(filepath.Join("names", fmt.Sprintf("yob%d.txt", year)), content)
	}
	if fx.Applicants != "" {
		write(filepath.Join("applicants", "data.csv"), fx.Applicants)
	}
	if fx.ActuarialF != "" {
		write(filepath.Join("actuarial", "f.csv"), fx.ActuarialF)
	}
	if fx.ActuarialM != "" {
		write(filepath.Join("actuarial", "m.csv"), fx.ActuarialM)
	}
	return dir
}
