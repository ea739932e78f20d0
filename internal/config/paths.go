package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths.
// Every data file location is derived from the data directory here.
type Paths struct {
	DataDir       string
	NamesDir      string
	ActuarialDir  string
	ApplicantsDir string
	GeneratedDir  string

	ApplicantsFile      string
	AgeReferenceFile    string
	GenderReferenceFile string
	TotalLivingFile     string
	ReferenceWorkbook   string
}

// NewPaths lays out the data directory tree rooted at dataDir
func NewPaths(dataDir string) *Paths {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	//   data/
	//   ├── names/         (yobYYYY.txt per year)
	//   ├── actuarial/     (f.csv, m.csv)
	//   ├── applicants/    (data.csv)
	//   └── generated/     (reference artifacts)
	namesDir := filepath.Join(dataDir, NamesDirName)
	actuarialDir := filepath.Join(dataDir, ActuarialDirName)
	applicantsDir := filepath.Join(dataDir, ApplicantsDirName)
	generatedDir := filepath.Join(dataDir, GeneratedDirName)

	return &Paths{
		DataDir:       dataDir,
		NamesDir:      namesDir,
		ActuarialDir:  actuarialDir,
		ApplicantsDir: applicantsDir,
		GeneratedDir:  generatedDir,

		ApplicantsFile:      filepath.Join(applicantsDir, ApplicantsFileName),
		AgeReferenceFile:    filepath.Join(generatedDir, AgeReferenceFileName),
		GenderReferenceFile: filepath.Join(generatedDir, GenderReferenceName),
		TotalLivingFile:     filepath.Join(generatedDir, TotalLivingFileName),
		ReferenceWorkbook:   filepath.Join(generatedDir, ReferenceWorkbookName),
	}
}

// Resolve returns the Paths for this configuration
func (c PathsConfig) Resolve() *Paths {
	return NewPaths(c.DataDir)
}

// YearFile returns the per-year count file for year
func (p *Paths) YearFile(year int) string {
	return filepath.Join(p.NamesDir, fmt.Sprintf("yob%d.txt", year))
}

// ActuarialFile returns the cohort survival file for a sex ("f" or "m")
func (p *Paths) ActuarialFile(sex string) string {
	return filepath.Join(p.ActuarialDir, strings.ToLower(sex)+".csv")
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.NamesDir,
		p.ActuarialDir,
		p.ApplicantsDir,
		p.GeneratedDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("names", p.NamesDir),
			slog.String("actuarial", p.ActuarialDir),
			slog.String("applicants", p.ApplicantsDir),
			slog.String("generated", p.GeneratedDir),
		),
		slog.Group("reference_files",
			slog.String("age", p.AgeReferenceFile),
			slog.String("gender", p.GenderReferenceFile),
			slog.String("total_living", p.TotalLivingFile),
		))
}

// ValidateRequiredFiles checks that the raw inputs of a full build exist
func (p *Paths) ValidateRequiredFiles() error {
	required := []struct {
		name string
		path string
	}{
		{"names directory", p.NamesDir},
		{"female actuarial table", p.ActuarialFile("f")},
		{"male actuarial table", p.ActuarialFile("m")},
		{"applicant totals", p.ApplicantsFile},
	}
	return checkMissing(required)
}

// ValidatePredictionFiles checks that the reference artifacts used by
// prediction-only startup exist
func (p *Paths) ValidatePredictionFiles() error {
	required := []struct {
		name string
		path string
	}{
		{"age reference", p.AgeReferenceFile},
		{"gender reference", p.GenderReferenceFile},
	}
	return checkMissing(required)
}

func checkMissing(required []struct {
	name string
	path string
}) error {
	var missing []string
	for _, r := range required {
		if !FileExists(r.path) {
			missing = append(missing, fmt.Sprintf("%s (%s)", r.name, r.path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("required files missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
