// Package dataprocessing loads the raw name-count, applicant and survival
// files and builds the derived tables every query reads.
//
// # Architecture
//
// The package is organized into two stages:
//
// 1. Loader: parses the per-year count files (concurrently), the applicant
// totals and the per-sex cohort survival tables into typed records
// 2. Builder: derives the name-by-year, peaks, calculated, living and age
// reference tables with explicit joins over keyed indices
//
// # Usage
//
//	raw, err := dataprocessing.NewLoader(paths, cfg.Dataset, logger, metrics).Load(ctx)
//	if err != nil {
//	    return err
//	}
//	ds, err := dataprocessing.NewBuilder(cfg.Dataset, logger, metrics).Build(ctx, raw)
//
// # Data Flow
//
//	yobYYYY.txt, data.csv, f.csv, m.csv → Loader → RawData → Builder → Dataset
//
// # Error Handling
//
// A missing or malformed input file fails the whole load with a STORAGE or
// PARSING AppError carrying the file and line. No partial Dataset is ever
// returned.
//
// # Concurrency
//
// A Dataset is immutable once Build returns and is safe for concurrent
// readers. Rows that fall outside a join (years without applicant totals,
// cohorts older than the survival table) are dropped without error.
package dataprocessing
