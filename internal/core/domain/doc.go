// Package domain defines the core business entities for TitleGrid.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Query: A logical record search request
//   - RecordDocument: A normalized land-record document
//   - SourceDescriptor: Static metadata for one jurisdiction source
//   - SourceOutcome: The per-jurisdiction result of one dispatch
//   - SearchSession: The aggregate record of one multi-jurisdiction search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
