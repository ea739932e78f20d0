// Package reference precomputes the lookup tables used by batch prediction
// and persists them next to the raw data.
//
// The gender reference classifies each name as f, m, x (no clear lean) or
// rare. The age reference is built by the dataset builder; this package
// turns it into birth-year bands and writes or reads it as a CSV artifact.
// A prediction-only process loads both artifacts through Store instead of
// rebuilding the dataset.
package reference
