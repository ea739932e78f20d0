// Package middleware holds the HTTP middleware of the API: request tracing
// with OpenTelemetry and a JSON content-type check for request bodies.
package middleware
