// Package app wires the namefinder server together.
//
// # Startup
//
//  1. Load configuration from defaults, the YAML file and the environment
//  2. Initialize logging and telemetry
//  3. Build the dataset from the source files, or load the reference
//     artifacts in prediction-only mode
//  4. Create the services and the router
//  5. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// The dataset is complete before the listener opens and is never mutated
// afterwards, so handlers share it without locking. Initialization errors
// are returned to the caller; the package never calls os.Exit.
package app
