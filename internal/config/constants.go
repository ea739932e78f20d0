package config

// Application constants
const (
	AppName    = "namefinder"
	AppVersion = "1.0.0"

	// Dataset bounds
	MinYear              = 1880 // first year of the national name files
	DataQualityBestAfter = 1937 // earlier years under-report births

	// Builder and reference defaults
	DefaultAgeMinLiving   = 20.0
	DefaultGenderMinCount = 25 // floor; callers cannot go below it
	DefaultGenderLeanMin  = 0.8
	DefaultSearchTop      = 20
	DefaultMidPercentile  = 0.68
	DefaultLoadWorkers    = 8

	// Actuarial survivors are given per 100,000 births
	ActuarialRadix = 100_000

	// File layout (relative to the data directory)
	DefaultDataDir        = "data"
	NamesDirName          = "names"
	ActuarialDirName      = "actuarial"
	ApplicantsDirName     = "applicants"
	GeneratedDirName      = "generated"
	ApplicantsFileName    = "data.csv"
	AgeReferenceFileName  = "age_prediction_reference.csv"
	GenderReferenceName   = "gender_prediction_reference.csv"
	TotalLivingFileName   = "total_number_living.csv"
	ReferenceWorkbookName = "reference.xlsx"

	// YearFilePattern matches one national per-year count file
	YearFilePattern = `^yob([0-9]{4})\.txt$`

	// Upstream data source
	SSABaseURL = "https://www.ssa.gov"

	// API
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)
