package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "namefinder/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "NAMEFINDER"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Refresh   RefreshConfig   `yaml:"refresh" envconfig:"REFRESH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
}

// DatasetConfig controls how the derived tables are built and queried
type DatasetConfig struct {
	MinYear            int     `yaml:"min_year" envconfig:"MIN_YEAR"`
	DataQualityCutoff  int     `yaml:"data_quality_cutoff" envconfig:"DATA_QUALITY_CUTOFF"`
	ActuarialTableYear int     `yaml:"actuarial_table_year" envconfig:"ACTUARIAL_TABLE_YEAR"`
	AgeMinLiving       float64 `yaml:"age_min_living" envconfig:"AGE_MIN_LIVING"`
	GenderMinCount     int     `yaml:"gender_min_count" envconfig:"GENDER_MIN_COUNT"`
	GenderLeanMin      float64 `yaml:"gender_lean_min" envconfig:"GENDER_LEAN_MIN"`
	SearchTop          int     `yaml:"search_top" envconfig:"SEARCH_TOP"`
	MidPercentile      float64 `yaml:"mid_percentile" envconfig:"MID_PERCENTILE"`
	LoadWorkers        int     `yaml:"load_workers" envconfig:"LOAD_WORKERS"`
	PredictionOnly     bool    `yaml:"prediction_only" envconfig:"PREDICTION_ONLY"`
}

// RefreshConfig contains settings for the SSA download job
type RefreshConfig struct {
	BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	RequestInterval time.Duration `yaml:"request_interval" envconfig:"REQUEST_INTERVAL"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// TelemetryConfig toggles tracing and metrics
type TelemetryConfig struct {
	TracingEnabled bool `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment, in that order of increasing precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("file", configFile)
		}
	}

	// Fields without a matching variable keep their file or default value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return apperrors.NewConfigError("server read and write timeouts must be positive", nil)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("invalid logging output %q", c.Logging.Output), nil)
	}

	if c.Paths.DataDir == "" {
		return apperrors.NewConfigError("data directory must be set", nil)
	}

	d := c.Dataset
	if d.MinYear <= 0 || d.DataQualityCutoff < d.MinYear {
		return apperrors.NewConfigError(fmt.Sprintf("invalid year bounds: min_year=%d data_quality_cutoff=%d", d.MinYear, d.DataQualityCutoff), nil)
	}
	if d.MidPercentile <= 0 || d.MidPercentile >= 1 {
		return apperrors.NewConfigError(fmt.Sprintf("mid_percentile must be in (0, 1), got %v", d.MidPercentile), nil)
	}
	if d.GenderLeanMin < 0 || d.GenderLeanMin > 1 {
		return apperrors.NewConfigError(fmt.Sprintf("gender_lean_min must be in [0, 1], got %v", d.GenderLeanMin), nil)
	}
	if d.AgeMinLiving < 0 {
		return apperrors.NewConfigError("age_min_living must not be negative", nil)
	}
	if d.LoadWorkers <= 0 {
		return apperrors.NewConfigError("load_workers must be positive", nil)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"namefinder.yaml",
		"configs/namefinder.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/namefinder.log",
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
		},
		Dataset: DatasetConfig{
			MinYear:           MinYear,
			DataQualityCutoff: DataQualityBestAfter,
			AgeMinLiving:      DefaultAgeMinLiving,
			GenderMinCount:    DefaultGenderMinCount,
			GenderLeanMin:     DefaultGenderLeanMin,
			SearchTop:         DefaultSearchTop,
			MidPercentile:     DefaultMidPercentile,
			LoadWorkers:       DefaultLoadWorkers,
		},
		Refresh: RefreshConfig{
			BaseURL:         SSABaseURL,
			UserAgent:       AppName + "/" + AppVersion,
			RequestInterval: 3 * time.Second,
			Timeout:         2 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: false,
			MetricsEnabled: true,
		},
	}
}
