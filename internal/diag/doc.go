// Package diag defines the diagnostic model shared by all pipeline phases.
//
// Diagnostic is the central record: a severity, a stable numeric code, a
// primary source span and a short message, optionally extended with notes.
// Producers emit diagnostics into a Bag, a bounded, order-preserving
// collector owned by a single pipeline invocation.
//
// The package performs no formatting or IO; rendering lives in
// internal/diagfmt and orchestration in internal/driver. Keep the data model
// deterministic so artifacts can be cached and compared in tests.
package diag
