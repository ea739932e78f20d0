// Package services is the layer between the transports and the query
// engine. It validates requests with struct tags, collecting every problem
// into an errors.ValidationErrors, runs the query, and records metrics and
// spans for each operation.
//
// # Services
//
//   - NamesService: name profiles, search, peak listings and the single and batch
//     gender and age predictions
//   - HealthService: process and dataset status
//
// # Prediction-only mode
//
// A NamesService over a prediction-only dataset answers the age
// predictions and the batch gender prediction with default options. The
// other operations return errors.ErrDatasetUnavailable.
//
// # Results
//
// Every operation returns a Result holding the effective parameters, the
// data and, for batches, the per-item problems. A query that matches
// nothing is not an error: Data is nil or empty.
package services
