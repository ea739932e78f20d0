// Package names answers the name queries: popularity profile, multi
// predicate search, sex prediction and birth-year band estimation.
//
// An Engine wraps one built dataprocessing.Dataset and never modifies it.
// Every query standardizes its input name first (see Standardize). A name
// that is not found is a normal, empty result rather than an error.
//
// Tie-break rules are explicit in Policy so callers can override them.
package names
