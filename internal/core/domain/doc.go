// Package domain defines the core business entities for sercha-kb.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Text extracted from one source file
//   - Chunk: A bounded segment of a document, the unit of embedding and retrieval
//   - IndexEntry: A chunk paired with its embedding
//   - ScoredChunk: A retrieval hit with its similarity score
//   - Answer: A generated answer with its timing breakdown
//   - Settings: The explicit configuration object passed to every pipeline
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
