// Package shared holds code used across packages that belongs to none of
// them.
//
// The testutil subpackage writes fixture data directories (the raw name,
// applicant and actuarial files) and captures slog output for assertions.
// It is imported by tests only.
package shared
