// Package analytics implements the query core over a normalised regulation
// table: facet and year filtering, chart aggregates, text search and
// record comparison.
//
// Every function is pure. Inputs are never modified and results are fresh
// values, so a single loaded table can be shared by concurrent callers.
// Empty inputs produce empty, non-nil results rather than errors.
package analytics
