package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"namefinder/internal/config"
)

// YearFile is a per-year count file together with the year its name encodes
type YearFile struct {
	Path string
	Year int
}

var yearFilePattern = regexp.MustCompile(config.YearFilePattern)

// FindYearFiles finds the yobYYYY.txt files in dir, sorted by year.
// Other entries are ignored.
func FindYearFiles(dir string) ([]YearFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []YearFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := yearFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		files = append(files, YearFile{Path: filepath.Join(dir, entry.Name()), Year: year})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Year < files[j].Year
	})

	return files, nil
}

// FilterYearFiles keeps the files whose year lies in [from, to]. A zero
// bound is open.
func FilterYearFiles(files []YearFile, from, to int) []YearFile {
	var filtered []YearFile
	for _, f := range files {
		if (from == 0 || f.Year >= from) && (to == 0 || f.Year <= to) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
