package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"namefinder/internal/config"
	apperrors "namefinder/internal/errors"
	"namefinder/pkg/contracts/domain"
)

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

func parseError(source string, line int, message string, cause error) *apperrors.AppError {
	err := apperrors.NewParsingError(message, cause).WithContext("file", source)
	if line > 0 {
		err.WithContext("line", line)
	}
	return err
}

// readRows reads every record, calling fn with its 1-based line number
func readRows(r io.Reader, source string, fn func(line int, rec []string) error) error {
	cr := newCSVReader(r)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return parseError(source, 0, "malformed csv", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

// ParseYearFile parses one per-year count file of (name, sex, number) rows
// and ranks every name within its sex. Repeated (name, sex) rows are summed.
func ParseYearFile(r io.Reader, year int, source string) ([]domain.CountRecord, error) {
	type key struct {
		name string
		sex  domain.Sex
	}
	index := make(map[key]int)
	var records []domain.CountRecord

	err := readRows(r, source, func(line int, rec []string) error {
		if len(rec) < 3 {
			return parseError(source, line, fmt.Sprintf("expected 3 fields, got %d", len(rec)), nil)
		}
		number, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			// a first row without a count is a header
			if line == 1 {
				return nil
			}
			return parseError(source, line, "invalid number", err)
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			return parseError(source, line, "empty name", nil)
		}
		sex, err := domain.ParseSex(rec[1])
		if err != nil {
			return parseError(source, line, "invalid sex", err)
		}
		if number < 0 {
			return parseError(source, line, "negative number", nil)
		}

		k := key{name, sex}
		if i, ok := index[k]; ok {
			records[i].Number += number
			return nil
		}
		index[k] = len(records)
		records = append(records, domain.CountRecord{Name: name, Sex: sex, Year: year, Number: number})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// rank within each sex, females first
	slices.SortStableFunc(records, func(a, b domain.CountRecord) int {
		return strings.Compare(string(a.Sex), string(b.Sex))
	})
	split := slices.IndexFunc(records, func(c domain.CountRecord) bool { return c.Sex == domain.SexMale })
	if split < 0 {
		split = len(records)
	}
	for _, part := range [][]domain.CountRecord{records[:split], records[split:]} {
		rankCompetition(part,
			func(c *domain.CountRecord) int { return c.Number },
			func(c *domain.CountRecord) string { return c.Name },
			func(c *domain.CountRecord, rank int) { c.Rank = rank })
	}

	return records, nil
}

// headerIndex maps each required column (case-insensitive) to its position
func headerIndex(header []string, source string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, parseError(source, 1, fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil)
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// ReadTable reads a CSV table whose first row names its columns and calls fn
// for every data row with an accessor by (lower-case) column name. An empty
// input or a missing column is a PARSING error.
func ReadTable(r io.Reader, source string, columns []string, fn func(line int, col func(name string) string) error) error {
	var cols map[string]int
	err := readRows(r, source, func(line int, rec []string) error {
		if cols == nil {
			var err error
			cols, err = headerIndex(rec, source, columns...)
			return err
		}
		return fn(line, func(name string) string {
			i, ok := cols[name]
			if !ok {
				return ""
			}
			return field(rec, i)
		})
	})
	if err != nil {
		return err
	}
	if cols == nil {
		return parseError(source, 0, "empty file", nil)
	}
	return nil
}

// ParseError builds the PARSING error of a bad row
func ParseError(source string, line int, message string, cause error) error {
	return parseError(source, line, message, cause)
}

// ParseApplicants parses the applicant totals file with a
// year,number,number_m,number_f header (column order is free)
func ParseApplicants(r io.Reader, source string) ([]domain.ApplicantTotal, error) {
	columns := []string{"year", "number", "number_m", "number_f"}
	var totals []domain.ApplicantTotal
	seen := make(map[int]bool)

	err := ReadTable(r, source, columns, func(line int, col func(string) string) error {
		var vals [4]int
		for i, name := range columns {
			v, err := strconv.Atoi(col(name))
			if err != nil {
				return parseError(source, line, "invalid "+name, err)
			}
			vals[i] = v
		}
		if seen[vals[0]] {
			return parseError(source, line, fmt.Sprintf("duplicate year %d", vals[0]), nil)
		}
		seen[vals[0]] = true

		totals = append(totals, domain.ApplicantTotal{
			Year:    vals[0],
			Number:  vals[1],
			NumberM: vals[2],
			NumberF: vals[3],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(totals, func(a, b domain.ApplicantTotal) int { return a.Year - b.Year })
	return totals, nil
}

type lifeRow struct {
	year, age int
	survivors float64
}

// ParseActuarial parses a cohort survival table with year, age and
// survivors columns. Only the rows of one table year are kept: tableYear
// when the file has it, otherwise the latest year before it. Projected
// cohorts after tableYear are used only when the file has nothing earlier,
// in which case the latest year in the file is taken. It returns the
// records and the table year used.
func ParseActuarial(r io.Reader, sex domain.Sex, tableYear int, source string) ([]domain.ActuarialRecord, int, error) {
	var rows []lifeRow
	err := ReadTable(r, source, []string{"year", "age", "survivors"}, func(line int, col func(string) string) error {
		year, err := strconv.Atoi(col("year"))
		if err != nil {
			return parseError(source, line, "invalid year", err)
		}
		age, err := strconv.Atoi(col("age"))
		if err != nil {
			return parseError(source, line, "invalid age", err)
		}
		survivors, err := strconv.ParseFloat(col("survivors"), 64)
		if err != nil {
			return parseError(source, line, "invalid survivors", err)
		}
		if survivors < 0 || survivors > config.ActuarialRadix || math.IsNaN(survivors) {
			return parseError(source, line, fmt.Sprintf("survivors %v outside [0, %d]", survivors, config.ActuarialRadix), nil)
		}
		rows = append(rows, lifeRow{year: year, age: age, survivors: survivors})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, parseError(source, 0, "no survival rows", nil)
	}

	chosen := resolveTableYear(rows, tableYear)

	var records []domain.ActuarialRecord
	for _, row := range rows {
		if row.year != chosen {
			continue
		}
		records = append(records, domain.ActuarialRecord{
			Sex:          sex,
			BirthYear:    row.year - row.age,
			SurvivalProb: row.survivors / config.ActuarialRadix,
		})
	}
	slices.SortFunc(records, func(a, b domain.ActuarialRecord) int { return a.BirthYear - b.BirthYear })

	return records, chosen, nil
}

func resolveTableYear(rows []lifeRow, tableYear int) int {
	before, newest := 0, 0
	for _, row := range rows {
		if row.year == tableYear {
			return tableYear
		}
		if row.year < tableYear {
			before = max(before, row.year)
		}
		newest = max(newest, row.year)
	}
	if before == 0 {
		return newest
	}
	return before
}
