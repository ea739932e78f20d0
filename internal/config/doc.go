// Package config provides centralized configuration management for namefinder.
// It loads configuration from multiple sources, validates it, and derives the
// file layout of the data directory.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// The YAML file is read from NAMEFINDER_CONFIG when set, otherwise from
// namefinder.yaml or configs/namefinder.yaml in the working directory.
//
// # Environment Variables
//
// All environment variables follow the pattern NAMEFINDER_<SECTION>_<KEY>:
//
//	NAMEFINDER_SERVER_PORT=8080
//	NAMEFINDER_LOGGING_LEVEL=debug
//	NAMEFINDER_PATHS_DATA_DIR=/srv/names
//	NAMEFINDER_DATASET_PREDICTION_ONLY=true
//
// # Path Management
//
// Paths derives every input and output file from the data directory:
//
//	paths := cfg.Paths.Resolve()
//	paths.YearFile(1950)          // data/names/yob1950.txt
//	paths.ActuarialFile("f")      // data/actuarial/f.csv
//	paths.AgeReferenceFile        // data/generated/age_prediction_reference.csv
package config
