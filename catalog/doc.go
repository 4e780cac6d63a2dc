// Package catalog persists consolidation runs in a SQLite database.
//
// Two tables are kept: runs, one row per consolidation with source,
// timing, counts and warnings, and elements, one row per consolidated
// element with its geometry and sequence number. The catalog is meant for
// batch workflows that process many documents and want to query what was
// extracted without re-reading the PDFs.
package catalog
